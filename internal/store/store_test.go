package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/keydrill/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "keydrill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Unix(0, 0)
	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * time.Minute)
		rec := model.SessionRecord{
			StartedAt: start,
			EndedAt:   start.Add(30 * time.Second),
			Tool:      "VSCode",
			Mode:      "random",
			Completed: 2,
			Skipped:   1,
		}
		attempts := []model.AttemptRecord{
			{Keys: "cmd+p", Attempts: 1},
			{Keys: "cmd+shift+p", Attempts: 3},
		}
		if _, err := st.InsertSession(ctx, rec, attempts); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	sessions, err := st.ListSessions(ctx, "VSCode", 0)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	if !sessions[0].EndedAt.Before(sessions[2].EndedAt) {
		t.Fatalf("sessions must be ordered oldest first")
	}

	sessions, err = st.ListSessions(ctx, "VSCode", 2)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected last 2 sessions, got %d", len(sessions))
	}

	sessions, err = st.ListSessions(ctx, "Slack", 0)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no Slack sessions, got %d", len(sessions))
	}
}

func TestInsertSessionRollsBackOnAttemptFailure(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	// Break only the attempts phase so the sessions insert succeeds first.
	if _, err := st.db.Exec(`DROP TABLE session_attempts`); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	rec := model.SessionRecord{
		StartedAt: time.Unix(0, 0),
		EndedAt:   time.Unix(30, 0),
		Tool:      "VSCode",
		Mode:      "random",
		Completed: 1,
	}
	attempts := []model.AttemptRecord{{Keys: "cmd+p", Attempts: 1}}
	if _, err := st.InsertSession(ctx, rec, attempts); err == nil {
		t.Fatal("expected insert to fail without session_attempts table")
	}

	if inUse := st.db.Stats().InUse; inUse != 0 {
		t.Fatalf("transaction leaked: %d connection(s) still checked out", inUse)
	}

	sessions, err := st.ListSessions(ctx, "", 0)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("session row must be rolled back, got %d", len(sessions))
	}
}

func TestAttemptAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Unix(0, 0)
	for i := 0; i < 2; i++ {
		start := base.Add(time.Duration(i) * time.Minute)
		rec := model.SessionRecord{
			StartedAt: start,
			EndedAt:   start.Add(time.Minute),
			Tool:      "VSCode",
			Mode:      "all",
			Completed: 1,
		}
		attempts := []model.AttemptRecord{{Keys: "cmd+shift+p", Attempts: 2 + i}}
		if _, err := st.InsertSession(ctx, rec, attempts); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	aggs, err := st.AttemptAggregates(ctx, 10, "VSCode")
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 1 {
		t.Fatalf("expected 1 aggregate, got %d", len(aggs))
	}
	if aggs[0].Keys != "cmd+shift+p" || aggs[0].Completions != 2 || aggs[0].AttemptSum != 5 {
		t.Fatalf("unexpected aggregate: %+v", aggs[0])
	}

	aggs, err = st.AttemptAggregates(ctx, 0, "VSCode")
	if err != nil || aggs != nil {
		t.Fatalf("zero window must return nothing: %v %v", aggs, err)
	}
}
