package practice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/keydrill/internal/capture"
	"github.com/verte-zerg/keydrill/internal/interceptor"
	"github.com/verte-zerg/keydrill/internal/keys"
	"github.com/verte-zerg/keydrill/internal/model"
)

const (
	defaultToggleRetries = 10
	defaultRetryInterval = 100 * time.Millisecond
)

// Session drives a practice run across an ordered shortcut list and owns the
// activation protocol around it. Capturing is always off again when Run
// returns, whatever the exit path: a captured keyboard left behind is the
// worst failure this program can produce.
type Session struct {
	supervisor interceptor.Supervisor
	channel    *capture.Channel
	machine    *Machine
	in         *bufio.Reader
	out        io.Writer
	log        *logrus.Logger

	toggleRetries int
	retryInterval time.Duration
	sleep         func(time.Duration)
}

// NewSession wires a session over the given supervisor and capture channel.
func NewSession(sup interceptor.Supervisor, channel *capture.Channel, in io.Reader, out io.Writer, log *logrus.Logger) *Session {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &Session{
		supervisor:    sup,
		channel:       channel,
		machine:       NewMachine(channel, out, log),
		in:            bufio.NewReader(in),
		out:           out,
		log:           log,
		toggleRetries: defaultToggleRetries,
		retryInterval: defaultRetryInterval,
		sleep:         time.Sleep,
	}
}

// Run practices the given shortcuts in order and returns the accumulated
// stats plus the per-shortcut attempt records for completed shortcuts. An
// Exited outcome aborts the remaining list. Capturing is deactivated before
// returning on every path, including errors and interrupts.
func (s *Session) Run(ctx context.Context, t model.Tool, mode string, shortcuts []model.Shortcut) (*model.SessionStats, []model.AttemptRecord, error) {
	stats := model.NewSessionStats()

	// Start from a known-off state so the confirmation prompt below is
	// typed on a normal keyboard. A stale capture file from an earlier
	// crash is cleared here even when there is nothing to practice.
	s.deactivate()

	if len(shortcuts) == 0 {
		return stats, nil, fmt.Errorf("nothing to practice")
	}

	s.printInstructions(t, mode, len(shortcuts))
	s.confirm("Press Enter to start...")

	s.activate()
	defer s.deactivate()

	var attempts []model.AttemptRecord
	for i, sc := range shortcuts {
		outcome, n, err := s.machine.Run(ctx, t, sc, i+1, len(shortcuts), stats)
		if err != nil {
			return stats, attempts, err
		}
		switch outcome {
		case model.OutcomeCompleted:
			attempts = append(attempts, model.AttemptRecord{
				Keys:     keys.NormalizeSequence(sc.Keys),
				Attempts: n,
			})
		case model.OutcomeSkipped:
			stats.Skipped++
		case model.OutcomeExited:
			fmt.Fprintln(s.out, noticeStyle.Render("\n⚠️  Exiting practice..."))
			return stats, attempts, nil
		}
	}
	return stats, attempts, nil
}

// viewExitTokens stop the key viewer loop.
var viewExitTokens = map[string]struct{}{
	"escape": {},
	"esc":    {},
	"ctrl+c": {},
}

// Watch streams captured key tokens to the output as they arrive, until an
// exit key is pressed or the context is cancelled. Like Run, capturing is
// deactivated before returning on every path.
func (s *Session) Watch(ctx context.Context) error {
	s.deactivate()

	fmt.Fprintln(s.out, promptStyle.Render("🔍 Real-time key viewer"))
	fmt.Fprintln(s.out, "Every key you press will be blocked and displayed.")
	fmt.Fprintln(s.out, "Press Esc or Ctrl+C to stop.")
	fmt.Fprintln(s.out)
	s.confirm("Press Enter to start capturing keys...")

	s.activate()
	defer s.deactivate()

	s.channel.ResetCursor()
	fmt.Fprintln(s.out, failStyle.Render("🔴 CAPTURING - your keys are being intercepted"))
	fmt.Fprintln(s.out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tokens, err := s.channel.ReadNewKeys()
		if err != nil {
			return fmt.Errorf("failed to read captured keys: %w", err)
		}
		for _, token := range tokens {
			if _, ok := viewExitTokens[keys.NormalizeSequence(token)]; ok {
				fmt.Fprintf(s.out, "%s [Exiting...]\n", token)
				return nil
			}
			fmt.Fprintln(s.out, token)
		}
		if len(tokens) == 0 {
			s.sleep(s.machine.pollInterval)
		}
	}
}

// SetPollInterval adjusts how often the capture file is polled for new keys.
func (s *Session) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.machine.pollInterval = d
	}
}

// SetGestureWindow adjusts how close two sentinel presses must be to count
// as the exit gesture.
func (s *Session) SetGestureWindow(d time.Duration) {
	if d > 0 {
		s.machine.gestureWindow = d
	}
}

// SetToggleRetries adjusts the retry budget of the activation handshake.
func (s *Session) SetToggleRetries(n int) {
	if n > 0 {
		s.toggleRetries = n
	}
}

// ensureState requests a capture toggle when needed and polls the file
// signal up to the retry budget. The toggle is a one-way hotkey synthesis
// with no acknowledgment, so the handshake can only ever be best effort.
func (s *Session) ensureState(active bool) bool {
	if s.channel.IsActive() == active {
		return true
	}
	s.log.Debugf("requesting capture toggle (want active=%v)", active)
	s.supervisor.SendToggle()
	for i := 0; i < s.toggleRetries; i++ {
		if s.channel.IsActive() == active {
			return true
		}
		s.log.Debugf("capture state not reached, retry %d/%d", i+1, s.toggleRetries)
		s.sleep(s.retryInterval)
	}
	return false
}

func (s *Session) activate() {
	fmt.Fprintln(s.out, promptStyle.Render("🔄 Activating trainer..."))
	if s.ensureState(true) {
		fmt.Fprintln(s.out, successStyle.Render("✅ Trainer activated!"))
		return
	}
	fmt.Fprintln(s.out, noticeStyle.Render("⚠️  Could not activate trainer automatically."))
	fmt.Fprintln(s.out, "Please press Cmd+Shift+- manually to activate.")
	s.confirm("Press Enter when you see '🔴 Trainer ON'...")
}

func (s *Session) deactivate() {
	if s.channel.IsActive() {
		fmt.Fprintln(s.out, promptStyle.Render("🔄 Deactivating trainer..."))
	}
	if s.ensureState(false) {
		return
	}
	fmt.Fprintln(s.out, noticeStyle.Render("⚠️  Could not deactivate trainer automatically."))
	fmt.Fprintln(s.out, "Please press Cmd+Shift+- manually until the trainer is OFF.")
	s.confirm("Press Enter once your keyboard works normally...")
}

func (s *Session) printInstructions(t model.Tool, mode string, total int) {
	fmt.Fprintf(s.out, "\nMode: %s\n", mode)
	fmt.Fprintf(s.out, "Shortcuts to practice: %d\n\n", total)
	fmt.Fprintln(s.out, promptStyle.Render("📋 Instructions:"))
	fmt.Fprintln(s.out, "  • The trainer will activate automatically")
	fmt.Fprintln(s.out, "  • Type each shortcut exactly as shown")
	fmt.Fprintln(s.out, noticeStyle.Render("  • Press ` (backtick) to skip a shortcut"))
	fmt.Fprintln(s.out, noticeStyle.Render("  • Press `` (backtick twice) to exit"))
	fmt.Fprintln(s.out, "  • Ctrl+C for emergency exit")
	fmt.Fprintln(s.out)
	if t.Description != "" {
		fmt.Fprintln(s.out, t.Description)
		fmt.Fprintln(s.out)
	}
}

func (s *Session) confirm(prompt string) {
	fmt.Fprint(s.out, prompt+" ")
	if _, err := s.in.ReadString('\n'); err != nil {
		// Stdin may be closed (tests, piped input); continue without it.
		fmt.Fprintln(s.out)
	}
}
