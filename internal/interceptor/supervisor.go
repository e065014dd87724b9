// Package interceptor manages the external key-interceptor process.
package interceptor

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// Supervisor is the capability surface the practice engine needs from the
// external key-capturing process. Tests substitute a fake; the engine never
// depends on the concrete OS-process implementation.
type Supervisor interface {
	// CheckBuilt reports whether the interceptor binary exists.
	CheckBuilt() bool
	// IsRunning reports whether an interceptor process is in the process table.
	IsRunning() bool
	// Pid returns the pid of a running interceptor, if any.
	Pid() (int, bool)
	// Start launches the interceptor detached unless one is already running.
	Start() (int, error)
	// Stop terminates the interceptor and removes the capture file. Best effort.
	Stop()
	// RunForeground runs the interceptor attached to the terminal until it exits.
	RunForeground() error
	// SendToggle synthesizes the system hotkey that flips capturing on/off.
	// Fire-and-forget: the caller observes the result through the capture file.
	SendToggle()
}

const (
	// startupWait is how long Start waits before confirming liveness.
	startupWait = 1 * time.Second
	// stopTimeout bounds the graceful-termination window before SIGKILL.
	stopTimeout = 2 * time.Second
	// toggleSettle gives the synthesized hotkey time to be delivered.
	toggleSettle = 300 * time.Millisecond
)

// Process supervises the real interceptor binary through the OS process table.
type Process struct {
	// BinaryPath is where the interceptor binary is expected.
	BinaryPath string
	// BinaryName is the process-table name used for pgrep/pkill matching.
	BinaryName string
	// CaptureFile is deleted as part of Stop cleanup.
	CaptureFile string

	log *logrus.Logger

	owned *exec.Cmd
	done  chan error
}

// NewProcess returns a supervisor for the interceptor binary.
func NewProcess(binaryPath, captureFile string, log *logrus.Logger) *Process {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &Process{
		BinaryPath:  binaryPath,
		BinaryName:  "key-interceptor",
		CaptureFile: captureFile,
		log:         log,
	}
}

// CheckBuilt reports whether the interceptor binary exists at its fixed path.
func (p *Process) CheckBuilt() bool {
	info, err := os.Stat(p.BinaryPath)
	return err == nil && !info.IsDir()
}

// IsRunning queries the process table for the interceptor by name.
func (p *Process) IsRunning() bool {
	_, ok := p.Pid()
	return ok
}

// Pid returns the first interceptor pid found in the process table.
func (p *Process) Pid() (int, bool) {
	out, err := exec.Command("pgrep", "-f", p.BinaryName).Output()
	if err != nil {
		return 0, false
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return 0, false
	}
	return pid, true
}

// Start launches the interceptor as a detached background process. If one is
// already running its pid is returned instead of starting a duplicate. The
// launch is confirmed by waiting a short interval and re-checking liveness;
// an interceptor that exits immediately reports failure.
func (p *Process) Start() (int, error) {
	if pid, ok := p.Pid(); ok {
		p.log.Debugf("interceptor already running (pid %d)", pid)
		return pid, nil
	}

	cmd := exec.Command(p.BinaryPath)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start interceptor: %w", err)
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	p.owned = cmd
	p.done = done
	p.log.Debugf("interceptor spawned (pid %d)", cmd.Process.Pid)

	time.Sleep(startupWait)

	select {
	case err := <-done:
		p.owned = nil
		p.done = nil
		if err != nil {
			return 0, fmt.Errorf("interceptor exited immediately: %w", err)
		}
		return 0, fmt.Errorf("interceptor exited immediately")
	default:
		return cmd.Process.Pid, nil
	}
}

// Stop terminates the owned process (SIGTERM, then SIGKILL after a timeout),
// best-effort kills any other interceptor instance by name, and removes the
// capture file. Every step is best effort; Stop never fails.
func (p *Process) Stop() {
	if p.owned != nil && p.owned.Process != nil {
		if err := p.owned.Process.Signal(syscall.SIGTERM); err != nil {
			p.log.Debugf("terminate interceptor: %v", err)
		}
		select {
		case <-p.done:
		case <-time.After(stopTimeout):
			if err := p.owned.Process.Kill(); err != nil {
				p.log.Debugf("kill interceptor: %v", err)
			}
			<-p.done
		}
		p.owned = nil
		p.done = nil
	}

	// Orphans from earlier runs are not ours but still capture keys.
	if err := exec.Command("pkill", "-f", p.BinaryName).Run(); err != nil {
		p.log.Debugf("pkill interceptor: %v", err)
	}

	if err := os.Remove(p.CaptureFile); err != nil && !os.IsNotExist(err) {
		p.log.Debugf("remove capture file: %v", err)
	}
}

// RunForeground runs the interceptor attached to the current terminal and
// blocks until it exits or the caller is interrupted. Used by freestyle mode.
func (p *Process) RunForeground() error {
	cmd := exec.Command(p.BinaryPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("interceptor exited: %w", err)
	}
	return nil
}

// SendToggle synthesizes Cmd+Shift+- through System Events. There is no
// acknowledgment; callers poll the capture file to observe the state change.
func (p *Process) SendToggle() {
	err := exec.Command(
		"osascript", "-e",
		`tell application "System Events" to key code 27 using {command down, shift down}`,
	).Run()
	if err != nil {
		p.log.Warnf("could not send toggle shortcut: %v", err)
	}
	time.Sleep(toggleSettle)
}
