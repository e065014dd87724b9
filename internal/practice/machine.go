// Package practice drives shortcut practice sessions.
package practice

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/keydrill/internal/capture"
	"github.com/verte-zerg/keydrill/internal/keys"
	"github.com/verte-zerg/keydrill/internal/model"
)

const (
	defaultPollInterval  = 50 * time.Millisecond
	defaultGestureWindow = 1 * time.Second
	successPause         = 800 * time.Millisecond
)

// sentinelTokens are the raw spellings of the skip/exit key as the
// interceptor may report it.
var sentinelTokens = map[string]struct{}{
	"`":        {},
	"backtick": {},
	"grave":    {},
}

// emergencyCombos abort the session immediately, bypassing the sentinel
// gesture. Escape is deliberately absent: many shortcuts contain it.
var emergencyCombos = map[string]struct{}{
	"ctrl+c": {},
	"cmd+q":  {},
	"cmd+.":  {},
}

// Machine runs the attempt loop for one shortcut at a time. The sentinel
// gesture state survives across runs so that a second sentinel press within
// the gesture window exits the session even though the first press already
// ended the previous shortcut's turn.
type Machine struct {
	channel *capture.Channel
	out     io.Writer
	log     *logrus.Logger

	pollInterval  time.Duration
	gestureWindow time.Duration
	now           func() time.Time
	sleep         func(time.Duration)

	sentinelCount int
	lastSentinel  time.Time
}

// NewMachine returns a practice machine reading tokens from the channel and
// writing feedback to out.
func NewMachine(channel *capture.Channel, out io.Writer, log *logrus.Logger) *Machine {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &Machine{
		channel:       channel,
		out:           out,
		log:           log,
		pollInterval:  defaultPollInterval,
		gestureWindow: defaultGestureWindow,
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

// Run practices a single shortcut: it prompts, consumes captured tokens and
// classifies them until a terminal outcome, returning the outcome and the
// number of attempts consumed. Completed shortcuts update stats; skipped and
// exited ones do not.
func (m *Machine) Run(ctx context.Context, t model.Tool, sc model.Shortcut, number, total int, stats *model.SessionStats) (model.Outcome, int, error) {
	renderPrompt(m.out, t, sc, number, total)
	m.channel.ResetCursor()

	expected := keys.NormalizeSequence(sc.Keys)
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return model.OutcomeExited, attempts, err
		}

		tokens, err := m.channel.ReadNewKeys()
		if err != nil {
			return model.OutcomeExited, attempts, fmt.Errorf("failed to read captured keys: %w", err)
		}

		for _, token := range tokens {
			m.log.Debugf("captured %q (normalized %q)", token, keys.NormalizeSequence(token))
			if m.isSentinel(token) {
				if m.recordSentinel() >= 2 {
					fmt.Fprintln(m.out, "You typed: ` (backtick) twice - Exiting...")
					return model.OutcomeExited, attempts, nil
				}
				fmt.Fprintln(m.out, "You typed: ` (backtick) - Skipping...")
				return model.OutcomeSkipped, attempts, nil
			}

			normalized := keys.NormalizeSequence(token)
			if _, ok := emergencyCombos[normalized]; ok {
				fmt.Fprintf(m.out, "You typed: %s - Emergency exit...\n", token)
				return model.OutcomeExited, attempts, nil
			}

			m.sentinelCount = 0
			attempts++
			fmt.Fprintf(m.out, "You typed: %s", token)

			if keys.Match(token, expected) {
				renderSuccess(m.out, attempts)
				stats.RecordCompleted(sc, attempts)
				m.sleep(successPause)
				return model.OutcomeCompleted, attempts, nil
			}
			m.handleMistake(token, expected, sc.Difficulty, attempts)
		}

		if len(tokens) == 0 {
			m.sleep(m.pollInterval)
		}
	}
}

func (m *Machine) isSentinel(token string) bool {
	_, ok := sentinelTokens[strings.ToLower(token)]
	return ok
}

// recordSentinel counts consecutive sentinel presses. Presses further apart
// than the gesture window start a fresh count.
func (m *Machine) recordSentinel() int {
	now := m.now()
	if now.Sub(m.lastSentinel) > m.gestureWindow {
		m.sentinelCount = 0
	}
	m.sentinelCount++
	m.lastSentinel = now
	return m.sentinelCount
}

// handleMistake gives feedback only for deliberate attempts; accidental
// presses (a lone letter, a bare modifier) pass without judgment.
func (m *Machine) handleMistake(token, expected string, difficulty, attempts int) {
	if !keys.Meaningful(token) {
		fmt.Fprintln(m.out)
		return
	}
	var hints []string
	if difficulty <= 2 && attempts > 2 {
		hints = keys.Hints(expected, keys.NormalizeSequence(token))
	}
	renderMistake(m.out, hints)
}
