// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// Shortcut is a single trainable keyboard shortcut.
type Shortcut struct {
	Keys        string   `toml:"keys"`
	Description string   `toml:"description"`
	Category    string   `toml:"category"`
	Difficulty  int      `toml:"difficulty"`
	Tips        []string `toml:"tips"`
	IsChord     bool     `toml:"is_chord"`
}

// Chord reports whether the shortcut is a multi-step sequence.
func (s Shortcut) Chord() bool {
	return s.IsChord || strings.Contains(s.Keys, " ")
}

// Category decorates shortcuts grouped under the same id.
type Category struct {
	Name  string `toml:"name"`
	Color string `toml:"color"`
	Icon  string `toml:"icon"`
}

// PracticeSet is a named, optionally explicit subset of a tool's shortcuts.
type PracticeSet struct {
	Name            string `toml:"name"`
	Description     string `toml:"description"`
	ShortcutIndices []int  `toml:"shortcut_indices"`
}

// Tool is one trainable application's shortcut collection.
type Tool struct {
	Name         string                 `toml:"name"`
	Icon         string                 `toml:"icon"`
	Description  string                 `toml:"description"`
	Categories   map[string]Category    `toml:"categories"`
	Shortcuts    []Shortcut             `toml:"shortcuts"`
	PracticeSets map[string]PracticeSet `toml:"practice_sets"`
}

// Outcome is the terminal state of practicing one shortcut.
type Outcome int

const (
	// OutcomeCompleted means the expected shortcut was typed.
	OutcomeCompleted Outcome = iota
	// OutcomeSkipped means the sentinel key was pressed once.
	OutcomeSkipped
	// OutcomeExited means the user requested to abort the session.
	OutcomeExited
)

// String returns the outcome name for logs and reports.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeExited:
		return "exited"
	default:
		return "unknown"
	}
}

// SessionStats accumulates results across one practice session.
type SessionStats struct {
	Completed    int
	Skipped      int
	Attempts     []int
	ByCategory   map[string]int
	ByDifficulty map[int]int
}

// NewSessionStats returns empty stats with initialized maps.
func NewSessionStats() *SessionStats {
	return &SessionStats{
		ByCategory:   map[string]int{},
		ByDifficulty: map[int]int{1: 0, 2: 0, 3: 0},
	}
}

// RecordCompleted updates counters after a successful shortcut.
func (s *SessionStats) RecordCompleted(sc Shortcut, attempts int) {
	s.Completed++
	s.Attempts = append(s.Attempts, attempts)
	if sc.Category != "" {
		s.ByCategory[sc.Category]++
	}
	s.ByDifficulty[sc.Difficulty]++
}

// AverageAttempts returns the mean attempt count per completed shortcut.
func (s *SessionStats) AverageAttempts() float64 {
	if len(s.Attempts) == 0 {
		return 0
	}
	total := 0
	for _, a := range s.Attempts {
		total += a
	}
	return float64(total) / float64(len(s.Attempts))
}

// SessionRecord is a finished session as persisted in the store.
type SessionRecord struct {
	StartedAt time.Time
	EndedAt   time.Time
	Tool      string
	Mode      string
	Completed int
	Skipped   int
}

// AttemptRecord is one completed shortcut's attempt count within a session.
type AttemptRecord struct {
	Keys     string
	Attempts int
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID int64
	EndedAt   time.Time
	Tool      string
	Mode      string
	Completed int
	Skipped   int
}

// AttemptAggregate aggregates attempt counts for one shortcut across sessions.
type AttemptAggregate struct {
	Keys        string
	Completions int
	AttemptSum  int
}
