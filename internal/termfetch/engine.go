package termfetch

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"tagharvest/pkg/logger"
	"tagharvest/pkg/retry"
	"tagharvest/pkg/slug"
	"tagharvest/pkg/storage"
	"tagharvest/pkg/trends"
	"tagharvest/pkg/ui"
)

// TrackerCategory groups term outcomes in the progress tracker
const TrackerCategory = "trends"

// Retry settings used when the Engine leaves them unset
const (
	DefaultMaxAttempts  = 5
	DefaultInitialDelay = 10 * time.Second
	DefaultFactor       = 2.0
)

var tracer = otel.Tracer("tagharvest/internal/termfetch")

// ErrBlankTerm rejects a term with nothing to search for
var ErrBlankTerm = errors.New("blank search term")

// SeriesFetcher returns the interest series of one query. An empty series
// with a nil error means the source has no data for the term.
type SeriesFetcher interface {
	Interest(ctx context.Context, q trends.Query) (trends.Series, error)
}

// Engine fetches one series per term and writes it to its own file. A file
// that already exists marks the term as done.
type Engine struct {
	Fetcher   SeriesFetcher
	Storage   *storage.Manager
	Timeframe string
	Geo       string

	// MaxAttempts counts the first attempt; zero means DefaultMaxAttempts
	MaxAttempts  int
	InitialDelay time.Duration
	Factor       float64
	// Cooldown follows every successful fetch
	Cooldown time.Duration

	Tracker *ui.Tracker
	Logger  logger.Logger
}

// Run walks terms in order. A term that keeps failing is logged and left
// for the next run; only a cancelled ctx ends the walk early.
func (e *Engine) Run(ctx context.Context, terms []string) ui.Stats {
	log := e.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("component", "termfetch")
	if e.Tracker == nil {
		e.Tracker = ui.NewTracker()
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	if e.InitialDelay <= 0 {
		e.InitialDelay = DefaultInitialDelay
	}
	if e.Factor <= 0 {
		e.Factor = DefaultFactor
	}

	saved, err := e.Storage.SavedKeys()
	if err != nil {
		log.WithError(err).Warn("failed to list saved series")
	}
	logger.LogComponentStart(log, "termfetch", map[string]interface{}{
		"terms":         len(terms),
		"already_saved": len(saved),
		"timeframe":     e.Timeframe,
		"output_dir":    e.Storage.GetOutputDir(),
	})
	e.Tracker.Begin(TrackerCategory, len(terms))

	for _, term := range terms {
		if ctx.Err() != nil {
			log.Warn("trend fetch interrupted, remaining terms left for the next run")
			break
		}
		outcome, fetched := e.fetchTerm(ctx, log, term)
		e.Tracker.Record(TrackerCategory, term, outcome)

		if fetched {
			if err := retry.Wait(ctx, e.Cooldown); err != nil {
				break
			}
		}
	}

	stats := e.Tracker.Finish(TrackerCategory)
	logger.LogComponentStop(log, "termfetch", stats.String())
	return stats
}

// fetchTerm reports the outcome for term and whether a series came back,
// which is when the cooldown applies.
func (e *Engine) fetchTerm(ctx context.Context, log logger.Logger, term string) (string, bool) {
	if strings.TrimSpace(term) == "" {
		logger.LogItem(log, TrackerCategory, term, ui.OutcomeFailed, ErrBlankTerm)
		return ui.OutcomeFailed, false
	}

	key := slug.Key(term)
	log = log.WithFields(map[string]interface{}{"term": term, "key": key})
	if e.Storage.IsSaved(key) {
		log.Debug("series already saved, skipping")
		return ui.OutcomeSkipped, false
	}

	ctx, span := tracer.Start(ctx, "termfetch.Term")
	defer span.End()
	span.SetAttributes(attribute.String("trends.term", term), attribute.String("trends.key", key))

	q := trends.Query{Keyword: term, Timeframe: e.Timeframe, Geo: e.Geo}
	series, err := retry.DoWithResult(ctx, func(ctx context.Context) (trends.Series, error) {
		return e.Fetcher.Interest(ctx, q)
	}, &retry.Config{
		MaxAttempts: e.MaxAttempts,
		Backoff:     retry.Doubling(e.InitialDelay, e.Factor),
		RetryIf:     retry.RetryAll,
		Logger:      log,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.LogItem(log, TrackerCategory, term, ui.OutcomeFailed, err)
		return ui.OutcomeFailed, false
	}

	if len(series) == 0 {
		log.Warn("no data for term")
		return ui.OutcomeSkipped, false
	}

	if err := e.Storage.SaveTable(key, trends.Header, series.Rows()); err != nil {
		span.RecordError(err)
		log.WithError(err).Error("failed to save series")
		return ui.OutcomeFailed, true
	}

	span.SetAttributes(attribute.Int("trends.points", len(series)))
	log.InfoWithFields("series saved", map[string]interface{}{
		"points": len(series),
		"path":   e.Storage.PathFor(key),
	})
	return ui.OutcomeSucceeded, true
}
