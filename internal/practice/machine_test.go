package practice

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/keydrill/internal/capture"
	"github.com/verte-zerg/keydrill/internal/model"
)

// typist appends one scripted batch of tokens to the capture file every time
// the machine polls, simulating a user typing while the loop sleeps.
type typist struct {
	t       *testing.T
	path    string
	batches [][]string
}

func (ty *typist) sleep(m *Machine) func(time.Duration) {
	return func(d time.Duration) {
		if d != m.pollInterval {
			return
		}
		if len(ty.batches) == 0 {
			ty.t.Fatalf("machine kept polling after the script ran out")
		}
		batch := ty.batches[0]
		ty.batches = ty.batches[1:]
		file, err := os.OpenFile(ty.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		require.NoError(ty.t, err)
		for _, token := range batch {
			_, err := file.WriteString(token + "\n")
			require.NoError(ty.t, err)
		}
		require.NoError(ty.t, file.Close())
	}
}

func newTestMachine(t *testing.T, batches [][]string) (*Machine, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "captured_keys.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	out := &bytes.Buffer{}
	m := NewMachine(capture.NewChannel(path), out, nil)
	ty := &typist{t: t, path: path, batches: batches}
	m.sleep = ty.sleep(m)
	return m, out
}

func testTool() model.Tool {
	return model.Tool{
		Name: "VSCode",
		Icon: "💻",
		Categories: map[string]model.Category{
			"basic": {Name: "Basic", Icon: "🟢", Color: "green"},
		},
	}
}

func TestMachineLogsTokenClassification(t *testing.T) {
	m, _ := newTestMachine(t, [][]string{{"cmd+p"}})
	logBuf := &bytes.Buffer{}
	m.log.SetOutput(logBuf)
	m.log.SetLevel(logrus.DebugLevel)

	sc := model.Shortcut{Keys: "cmd+p", Difficulty: 1}
	_, _, err := m.Run(context.Background(), testTool(), sc, 1, 1, model.NewSessionStats())
	require.NoError(t, err)
	assert.Contains(t, logBuf.String(), `captured \"cmd+p\"`)
}

func TestMachineCompletedFirstTry(t *testing.T) {
	m, out := newTestMachine(t, [][]string{{"cmd+p"}})
	sc := model.Shortcut{Keys: "cmd+p", Description: "Quick open", Category: "basic", Difficulty: 1}
	stats := model.NewSessionStats()

	outcome, attempts, err := m.Run(context.Background(), testTool(), sc, 1, 1, stats)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeCompleted, outcome)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, []int{1}, stats.Attempts)
	assert.Equal(t, 1, stats.ByCategory["basic"])
	assert.Equal(t, 1, stats.ByDifficulty[1])
	assert.Contains(t, out.String(), "Perfect! First try!")
}

func TestMachineModifierOrderIgnored(t *testing.T) {
	m, _ := newTestMachine(t, [][]string{{"shift+cmd+n"}})
	sc := model.Shortcut{Keys: "cmd+shift+n", Difficulty: 1}
	stats := model.NewSessionStats()

	outcome, attempts, err := m.Run(context.Background(), testTool(), sc, 1, 1, stats)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeCompleted, outcome)
	assert.Equal(t, 1, attempts)
}

func TestMachineChordNeedsBothSteps(t *testing.T) {
	sc := model.Shortcut{Keys: "cmd+k cmd+s", Difficulty: 2, IsChord: true}

	m, _ := newTestMachine(t, [][]string{{"cmd+k"}, {"cmd+k cmd+s"}})
	stats := model.NewSessionStats()
	outcome, attempts, err := m.Run(context.Background(), testTool(), sc, 1, 1, stats)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeCompleted, outcome)
	// The lone first step counted as a failed attempt.
	assert.Equal(t, 2, attempts)
}

func TestMachineMismatchFeedbackAndHints(t *testing.T) {
	m, out := newTestMachine(t, [][]string{{"ctrl+p", "ctrl+p", "ctrl+p", "cmd+p"}})
	sc := model.Shortcut{Keys: "cmd+p", Difficulty: 1}
	stats := model.NewSessionStats()

	outcome, attempts, err := m.Run(context.Background(), testTool(), sc, 1, 1, stats)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeCompleted, outcome)
	assert.Equal(t, 4, attempts)
	assert.Contains(t, out.String(), "Try again")
	// Hints only kick in after two attempts on low-difficulty shortcuts.
	assert.Contains(t, out.String(), "not Ctrl on Mac")
}

func TestMachineNoiseConsumedSilently(t *testing.T) {
	m, out := newTestMachine(t, [][]string{{"a", "cmd+p"}})
	sc := model.Shortcut{Keys: "cmd+p", Difficulty: 1}
	stats := model.NewSessionStats()

	outcome, attempts, err := m.Run(context.Background(), testTool(), sc, 1, 1, stats)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeCompleted, outcome)
	// The bare letter still counts as an attempt but draws no judgment.
	assert.Equal(t, 2, attempts)
	assert.NotContains(t, out.String(), "Try again")
}

func TestMachineEmergencyExit(t *testing.T) {
	m, _ := newTestMachine(t, [][]string{{"ctrl+c"}})
	sc := model.Shortcut{Keys: "cmd+p", Difficulty: 1}
	stats := model.NewSessionStats()

	outcome, attempts, err := m.Run(context.Background(), testTool(), sc, 1, 1, stats)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeExited, outcome)
	assert.Equal(t, 0, attempts)
	assert.Equal(t, 0, stats.Completed)
}

func TestMachineSentinelGesture(t *testing.T) {
	sc := model.Shortcut{Keys: "cmd+p", Difficulty: 1}

	t.Run("TwoPressesWithinWindowExit", func(t *testing.T) {
		m, _ := newTestMachine(t, [][]string{{"`"}, {"`"}})
		clock := time.Unix(1000, 0)
		m.now = func() time.Time { return clock }
		stats := model.NewSessionStats()

		outcome, _, err := m.Run(context.Background(), testTool(), sc, 1, 2, stats)
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeSkipped, outcome)

		clock = clock.Add(300 * time.Millisecond)
		outcome, _, err = m.Run(context.Background(), testTool(), sc, 2, 2, stats)
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeExited, outcome)
	})

	t.Run("SlowPressesSkipIndependently", func(t *testing.T) {
		m, _ := newTestMachine(t, [][]string{{"`"}, {"`"}})
		clock := time.Unix(1000, 0)
		m.now = func() time.Time { return clock }
		stats := model.NewSessionStats()

		outcome, _, err := m.Run(context.Background(), testTool(), sc, 1, 2, stats)
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeSkipped, outcome)

		clock = clock.Add(1500 * time.Millisecond)
		outcome, _, err = m.Run(context.Background(), testTool(), sc, 2, 2, stats)
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeSkipped, outcome)
	})

	t.Run("OtherKeyResetsCount", func(t *testing.T) {
		m, _ := newTestMachine(t, [][]string{{"`"}, {"cmd+x", "`"}})
		clock := time.Unix(1000, 0)
		m.now = func() time.Time { return clock }
		stats := model.NewSessionStats()

		outcome, _, err := m.Run(context.Background(), testTool(), sc, 1, 2, stats)
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeSkipped, outcome)

		clock = clock.Add(100 * time.Millisecond)
		outcome, _, err = m.Run(context.Background(), testTool(), sc, 2, 2, stats)
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeSkipped, outcome)
	})
}

func TestMachineStaleTokensIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captured_keys.txt")
	// Tokens from before the prompt must not be judged.
	require.NoError(t, os.WriteFile(path, []byte("cmd+p\n"), 0o644))

	out := &bytes.Buffer{}
	m := NewMachine(capture.NewChannel(path), out, nil)
	ty := &typist{t: t, path: path, batches: [][]string{{"cmd+p"}}}
	m.sleep = ty.sleep(m)

	sc := model.Shortcut{Keys: "cmd+p", Difficulty: 1}
	stats := model.NewSessionStats()
	outcome, attempts, err := m.Run(context.Background(), testTool(), sc, 1, 1, stats)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeCompleted, outcome)
	assert.Equal(t, 1, attempts)
	if strings.Count(out.String(), "You typed:") != 1 {
		t.Fatalf("stale token leaked into the run:\n%s", out.String())
	}
}

func TestMachineContextCanceled(t *testing.T) {
	m, _ := newTestMachine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := model.Shortcut{Keys: "cmd+p", Difficulty: 1}
	outcome, _, err := m.Run(ctx, testTool(), sc, 1, 1, model.NewSessionStats())
	assert.Error(t, err)
	assert.Equal(t, model.OutcomeExited, outcome)
}
