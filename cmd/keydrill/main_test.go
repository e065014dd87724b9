package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

// fakeSupervisor records lifecycle calls without touching the process table.
type fakeSupervisor struct {
	running       bool
	starts        int
	stops         int
	foregroundErr error
}

func (f *fakeSupervisor) CheckBuilt() bool { return true }
func (f *fakeSupervisor) IsRunning() bool  { return f.running }

func (f *fakeSupervisor) Pid() (int, bool) {
	if f.running {
		return 4242, true
	}
	return 0, false
}

func (f *fakeSupervisor) Start() (int, error) {
	f.starts++
	f.running = true
	return 4242, nil
}

func (f *fakeSupervisor) Stop() {
	f.stops++
	f.running = false
}

func (f *fakeSupervisor) RunForeground() error { return f.foregroundErr }
func (f *fakeSupervisor) SendToggle()          {}

func TestFreestyleRestartsAfterInterrupt(t *testing.T) {
	sup := &fakeSupervisor{running: true, foregroundErr: errors.New("signal: interrupt")}
	// Ctrl+C terminated the foreground run; the surrounding context is
	// already cancelled when control returns.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &bytes.Buffer{}
	if err := freestyle(ctx, sup, out); err != nil {
		t.Fatalf("freestyle: %v", err)
	}
	if sup.stops != 1 {
		t.Fatalf("background instance must be stopped before the foreground run, stops=%d", sup.stops)
	}
	if sup.starts != 1 {
		t.Fatalf("interceptor must be restarted in the background, starts=%d", sup.starts)
	}
	if !sup.running {
		t.Fatal("interceptor must be running after freestyle returns")
	}
}

func TestFreestyleRestartsAfterCleanExit(t *testing.T) {
	sup := &fakeSupervisor{running: true}

	out := &bytes.Buffer{}
	if err := freestyle(context.Background(), sup, out); err != nil {
		t.Fatalf("freestyle: %v", err)
	}
	if sup.starts != 1 || !sup.running {
		t.Fatalf("interceptor must be restarted, starts=%d running=%v", sup.starts, sup.running)
	}
}
