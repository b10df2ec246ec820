package discovery

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tagharvest/pkg/logger"
	"tagharvest/pkg/retry"
	"tagharvest/pkg/tiktok"
)

var tracer = otel.Tracer("tagharvest/internal/discovery")

// Options bounds one discovery pass
type Options struct {
	BaseURL string
	// TimeLimit is the wall-clock budget of a pass
	TimeLimit time.Duration
	// ContentWait bounds the wait for the first item link
	ContentWait time.Duration
	// ScrollPause plus a random share of ScrollJitter separates iterations
	ScrollPause  time.Duration
	ScrollJitter time.Duration
	// StagnationLimit is the number of consecutive iterations without growth
	// that ends a pass
	StagnationLimit int
	// GrowthTimeout ends a pass when nothing was added for this long
	GrowthTimeout time.Duration
	// ChallengePoll and ChallengeWait pace and bound the wait on a
	// verification wall
	ChallengePoll time.Duration
	ChallengeWait time.Duration
}

// DefaultOptions returns the production pacing
func DefaultOptions() Options {
	return Options{
		BaseURL:         tiktok.BaseURL,
		TimeLimit:       1000 * time.Second,
		ContentWait:     60 * time.Second,
		ScrollPause:     1600 * time.Millisecond,
		ScrollJitter:    400 * time.Millisecond,
		StagnationLimit: 25,
		GrowthTimeout:   45 * time.Second,
		ChallengePoll:   time.Second,
		ChallengeWait:   180 * time.Second,
	}
}

// StopReason tells why a pass ended
type StopReason string

const (
	StopTarget     StopReason = "target_reached"
	StopBudget     StopReason = "time_limit"
	StopStagnation StopReason = "stagnation"
	StopNoGrowth   StopReason = "growth_timeout"
	StopNavigation StopReason = "navigation_failed"
)

// Result is the outcome of one pass
type Result struct {
	IDs        []string
	Iterations int
	Passive    int
	Reason     StopReason
	Elapsed    time.Duration
}

// Engine runs discovery passes over a single page
type Engine struct {
	page   Page
	opts   Options
	logger logger.Logger
}

func NewEngine(page Page, opts Options, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = tiktok.BaseURL
	}
	if opts.StagnationLimit <= 0 {
		opts.StagnationLimit = 25
	}
	return &Engine{page: page, opts: opts, logger: log.WithField("component", "discovery")}
}

// Collect accumulates up to target IDs for tag. It never fails: whatever
// was found when the pass ends is returned.
func (e *Engine) Collect(ctx context.Context, tag string, target int) Result {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "discovery.Collect")
	defer span.End()
	span.SetAttributes(attribute.String("discovery.tag", tag), attribute.Int("discovery.target", target))

	res := e.collect(ctx, tag, target)
	res.Elapsed = time.Since(start)

	span.SetAttributes(
		attribute.Int("discovery.ids", len(res.IDs)),
		attribute.String("discovery.stop_reason", string(res.Reason)),
	)
	e.logger.InfoWithFields("discovery pass finished", map[string]interface{}{
		"category":    tag,
		"ids":         len(res.IDs),
		"passive":     res.Passive,
		"iterations":  res.Iterations,
		"stop_reason": string(res.Reason),
		"elapsed_ms":  res.Elapsed.Milliseconds(),
	})
	return res
}

func (e *Engine) collect(ctx context.Context, tag string, target int) Result {
	if target <= 0 {
		return Result{IDs: []string{}, Reason: StopTarget}
	}
	if e.opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.TimeLimit)
		defer cancel()
	}

	log := e.logger.WithField("category", tag)
	acc := NewAccumulator(target)
	res := Result{}

	url := tiktok.TagURL(e.opts.BaseURL, tag)
	if err := e.page.Navigate(ctx, url); err != nil {
		log.WithError(err).WarnWithFields("navigation failed", map[string]interface{}{"url": url})
		res.IDs = acc.IDs()
		res.Reason = StopNavigation
		return res
	}
	e.page.DismissConsent(ctx)

	var passive atomic.Int64
	stop, err := e.page.ObserveResponses(ctx, func(u string) {
		if acc.Add(IDFromResponseURL(u)) {
			passive.Add(1)
		}
	})
	if err != nil {
		log.WithError(err).Warn("network observation unavailable, continuing with page links only")
	} else {
		defer stop()
	}

	if err := e.page.WaitForContent(ctx, e.opts.ContentWait); err != nil {
		log.WithError(err).Debug("no content after initial wait")
	}

	res.Reason = e.loop(ctx, log, acc, &res)
	res.IDs = acc.IDs()
	res.Passive = int(passive.Load())
	return res
}

func (e *Engine) loop(ctx context.Context, log logger.Logger, acc *Accumulator, res *Result) StopReason {
	stagnant := 0
	lastLen := acc.Len()
	lastGrowth := time.Now()

	for {
		if acc.Full() {
			return StopTarget
		}
		if ctx.Err() != nil {
			return StopBudget
		}
		res.Iterations++

		if err := e.page.Scroll(ctx); err != nil {
			log.WithError(err).Debug("scroll failed")
		}
		if err := retry.Wait(ctx, retry.Jittered(e.opts.ScrollPause, e.opts.ScrollJitter)); err != nil {
			return StopBudget
		}

		links, err := e.page.VisibleLinks(ctx)
		if err != nil {
			log.WithError(err).Debug("link extraction failed")
		}
		for _, href := range links {
			acc.Add(ParseVideoHref(href))
		}

		if n := acc.Len(); n > lastLen {
			lastLen = n
			stagnant = 0
			lastGrowth = time.Now()
		} else {
			stagnant++
		}
		if acc.Full() {
			return StopTarget
		}
		if stagnant >= e.opts.StagnationLimit {
			return StopStagnation
		}

		if visible, err := e.page.ChallengeVisible(ctx); err == nil && visible {
			log.Warn("verification challenge shown, pausing")
			if e.waitChallenge(ctx) {
				log.Info("verification challenge cleared")
				lastGrowth = time.Now()
			}
		}

		if e.opts.GrowthTimeout > 0 && time.Since(lastGrowth) > e.opts.GrowthTimeout {
			return StopNoGrowth
		}
	}
}

// waitChallenge polls until the challenge is gone. It gives up after
// ChallengeWait or when ctx ends and reports whether the wall cleared.
func (e *Engine) waitChallenge(ctx context.Context) bool {
	poll := e.opts.ChallengePoll
	if poll <= 0 {
		poll = time.Second
	}
	wctx := ctx
	if e.opts.ChallengeWait > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, e.opts.ChallengeWait)
		defer cancel()
	}

	for {
		if err := retry.Wait(wctx, poll); err != nil {
			return false
		}
		visible, err := e.page.ChallengeVisible(wctx)
		if err == nil && !visible {
			return true
		}
	}
}
