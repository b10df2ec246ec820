package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/muesli/termenv"
)

const barWidth = 20

// ProgressDisplay draws a single status line per category
type ProgressDisplay struct {
	mu      sync.Mutex
	w       io.Writer
	total   int
	verbose bool
}

// NewProgressDisplay writes to w; verbose prints one line per item instead
// of redrawing the status line
func NewProgressDisplay(w io.Writer, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{w: w, verbose: verbose}
}

func (p *ProgressDisplay) Start(category string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	fmt.Fprintf(p.w, "%s %s\n", Magenta("→"), Cyan(category))
}

func (p *ProgressDisplay) Update(category, item, outcome string, s Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.verbose {
		mark := Green("✓")
		switch outcome {
		case OutcomeFailed:
			mark = Red("✗")
		case OutcomeSkipped:
			mark = Yellow("-")
		}
		fmt.Fprintf(p.w, "  %s %s\n", mark, item)
		return
	}

	line := fmt.Sprintf("  %s %s • %s", p.bar(s.Attempted), counts(s), Dim(item))
	fmt.Fprintf(p.w, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

func (p *ProgressDisplay) Complete(category string, s Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.verbose {
		fmt.Fprintln(p.w)
	}
	fmt.Fprintf(p.w, "%s %s: %s in %s\n", Green("✓"), category, counts(s), FormatDuration(s.Elapsed()))
}

func (p *ProgressDisplay) bar(done int) string {
	if p.total <= 0 {
		return fmt.Sprintf("%d", done)
	}
	percent := float64(done) / float64(p.total)
	if percent > 1 {
		percent = 1
	}

	opts := []progress.Option{
		progress.WithSolidFill(string(neonGreen)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	}
	if !colorEnabled() {
		opts = append(opts, progress.WithColorProfile(termenv.Ascii))
	}
	bar := progress.New(opts...)
	bar.Full = '━'
	bar.Empty = '─'
	return fmt.Sprintf("%s %d/%d", bar.ViewAs(percent), done, p.total)
}

func counts(s Stats) string {
	parts := []string{Green(fmt.Sprintf("%d ok", s.Succeeded))}
	if s.Failed > 0 {
		parts = append(parts, Red(fmt.Sprintf("%d failed", s.Failed)))
	}
	if s.Skipped > 0 {
		parts = append(parts, Yellow(fmt.Sprintf("%d skipped", s.Skipped)))
	}
	return strings.Join(parts, " ")
}

// FormatDuration renders d as 42s, 3m07s or 1h05m
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
