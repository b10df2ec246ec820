package ui

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Outcome of one item
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Stats counts item outcomes for one category
type Stats struct {
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
	Started   time.Time
	Finished  time.Time
}

// Elapsed is the time between Begin and Finish, or until now when unfinished
func (s Stats) Elapsed() time.Duration {
	if s.Started.IsZero() {
		return 0
	}
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}

func (s Stats) String() string {
	return fmt.Sprintf("%d attempted, %d succeeded, %d failed, %d skipped",
		s.Attempted, s.Succeeded, s.Failed, s.Skipped)
}

// Tracker records per-category progress of a run. Safe for concurrent use.
// A non-nil Display is redrawn on every update.
type Tracker struct {
	mu      sync.Mutex
	stats   map[string]*Stats
	Display *ProgressDisplay
}

func NewTracker() *Tracker {
	return &Tracker{stats: make(map[string]*Stats)}
}

func (t *Tracker) entry(category string) *Stats {
	s, ok := t.stats[category]
	if !ok {
		s = &Stats{Started: time.Now()}
		t.stats[category] = s
	}
	return s
}

// Begin starts a category; total is the number of items expected, 0 if unknown
func (t *Tracker) Begin(category string, total int) {
	t.mu.Lock()
	s := t.entry(category)
	s.Started = time.Now()
	t.mu.Unlock()

	if t.Display != nil {
		t.Display.Start(category, total)
	}
}

// Record counts one attempted item with its outcome
func (t *Tracker) Record(category, item, outcome string) {
	t.mu.Lock()
	s := t.entry(category)
	s.Attempted++
	switch outcome {
	case OutcomeSucceeded:
		s.Succeeded++
	case OutcomeFailed:
		s.Failed++
	case OutcomeSkipped:
		s.Skipped++
	}
	snapshot := *s
	t.mu.Unlock()

	if t.Display != nil {
		t.Display.Update(category, item, outcome, snapshot)
	}
}

// Finish closes a category and returns its counts
func (t *Tracker) Finish(category string) Stats {
	t.mu.Lock()
	s := t.entry(category)
	s.Finished = time.Now()
	snapshot := *s
	t.mu.Unlock()

	if t.Display != nil {
		t.Display.Complete(category, snapshot)
	}
	return snapshot
}

// Stats returns the counts of one category
func (t *Tracker) Stats(category string) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.stats[category]; ok {
		return *s
	}
	return Stats{}
}

// Categories returns the tracked categories in sorted order
func (t *Tracker) Categories() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.stats))
	for name := range t.stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Totals sums all categories
func (t *Tracker) Totals() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total Stats
	for _, s := range t.stats {
		total.Attempted += s.Attempted
		total.Succeeded += s.Succeeded
		total.Failed += s.Failed
		total.Skipped += s.Skipped
		if total.Started.IsZero() || s.Started.Before(total.Started) {
			total.Started = s.Started
		}
		if s.Finished.After(total.Finished) {
			total.Finished = s.Finished
		}
	}
	return total
}
