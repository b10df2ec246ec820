package hydrate

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tagharvest/pkg/checkpoint"
	"tagharvest/pkg/logger"
	"tagharvest/pkg/tiktok"
	"tagharvest/pkg/ui"
)

var tracer = otel.Tracer("tagharvest/internal/hydrate")

// DateLayout is the video_date column format
const DateLayout = "2006-01-02"

// Header is the column layout of the hydrated output
var Header = []string{"hashtag", "video_date", "likes", "views", "shares", "comments"}

// Fetcher returns the detail record of one video. A nil record with a nil
// error means the page carried no record.
type Fetcher interface {
	FetchVideo(ctx context.Context, id string) (*tiktok.Video, error)
}

// Sink receives output rows. Append must make the row durable before
// returning.
type Sink interface {
	Append(record []string) error
}

// Ledger remembers which IDs were already hydrated across runs
type Ledger interface {
	Has(ctx context.Context, category, id string) (bool, error)
	Mark(ctx context.Context, category, id string) error
	Count(ctx context.Context, category string) (int, error)
}

// Options wires the optional collaborators of an Engine
type Options struct {
	// Ledger makes re-runs skip hydrated IDs; nil hydrates everything
	Ledger  Ledger
	Tracker *ui.Tracker
	Logger  logger.Logger
}

// Engine hydrates checkpointed IDs one at a time
type Engine struct {
	fetcher Fetcher
	sink    Sink
	ledger  Ledger
	tracker *ui.Tracker
	logger  logger.Logger
}

func NewEngine(fetcher Fetcher, sink Sink, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Tracker == nil {
		opts.Tracker = ui.NewTracker()
	}
	return &Engine{
		fetcher: fetcher,
		sink:    sink,
		ledger:  opts.Ledger,
		tracker: opts.Tracker,
		logger:  opts.Logger.WithField("component", "hydrate"),
	}
}

// Row renders a video as an output record for category
func Row(category string, v *tiktok.Video) []string {
	return []string{
		category,
		v.CreatedAt().Format(DateLayout),
		strconv.FormatInt(int64(v.Stats.DiggCount), 10),
		strconv.FormatInt(int64(v.Stats.PlayCount), 10),
		strconv.FormatInt(int64(v.Stats.ShareCount), 10),
		strconv.FormatInt(int64(v.Stats.CommentCount), 10),
	}
}

// Run hydrates every ID of cp, category by category in sorted order. A
// failing ID is logged and skipped; the run only stops early when ctx is
// cancelled. It returns the totals over all categories.
func (e *Engine) Run(ctx context.Context, cp checkpoint.Checkpoint) ui.Stats {
	logger.LogComponentStart(e.logger, "hydrate", map[string]interface{}{
		"categories": len(cp),
		"ids":        cp.Total(),
		"ledger":     e.ledger != nil,
	})

	for _, category := range cp.Categories() {
		if ctx.Err() != nil {
			e.logger.Warn("hydration interrupted, remaining categories left for the next run")
			break
		}
		e.runCategory(ctx, category, cp[category])
	}

	totals := e.tracker.Totals()
	logger.LogComponentStop(e.logger, "hydrate", totals.String())
	return totals
}

func (e *Engine) runCategory(ctx context.Context, category string, ids []string) {
	ctx, span := tracer.Start(ctx, "hydrate.Category")
	defer span.End()
	span.SetAttributes(attribute.String("hydrate.category", category), attribute.Int("hydrate.ids", len(ids)))

	log := e.logger.WithField("category", category)
	log.InfoWithFields("processing category", map[string]interface{}{"videos": len(ids)})
	e.tracker.Begin(category, len(ids))

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		outcome := e.hydrateOne(ctx, log, category, id)
		e.tracker.Record(category, id, outcome)
	}

	stats := e.tracker.Finish(category)
	span.SetAttributes(
		attribute.Int("hydrate.succeeded", stats.Succeeded),
		attribute.Int("hydrate.failed", stats.Failed),
	)
	fields := map[string]interface{}{
		"attempted": stats.Attempted,
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
		"skipped":   stats.Skipped,
	}
	if e.ledger != nil {
		// an interrupted category still reports its ledger total
		if n, err := e.ledger.Count(context.WithoutCancel(ctx), category); err != nil {
			log.WithError(err).Warn("failed to count hydrated ids")
		} else {
			fields["hydrated_total"] = n
		}
	}
	log.InfoWithFields("category done", fields)
}

func (e *Engine) hydrateOne(ctx context.Context, log logger.Logger, category, id string) string {
	if e.ledger != nil {
		done, err := e.ledger.Has(ctx, category, id)
		if err != nil {
			log.WithError(err).WarnWithFields("ledger lookup failed", map[string]interface{}{"item": id})
		} else if done {
			logger.LogItem(log, category, id, ui.OutcomeSkipped, nil)
			return ui.OutcomeSkipped
		}
	}

	v, err := e.fetcher.FetchVideo(ctx, id)
	if err != nil {
		logger.LogItem(log, category, id, ui.OutcomeFailed, err)
		return ui.OutcomeFailed
	}
	if v == nil {
		log.WithField("item", id).Debug("no detail record, skipping")
		return ui.OutcomeSkipped
	}

	if err := e.sink.Append(Row(category, v)); err != nil {
		log.WithError(err).ErrorWithFields("failed to write row", map[string]interface{}{"item": id})
		return ui.OutcomeFailed
	}
	if e.ledger != nil {
		if err := e.ledger.Mark(ctx, category, id); err != nil {
			log.WithError(err).WarnWithFields("failed to record hydrated id", map[string]interface{}{"item": id})
		}
	}
	logger.LogItem(log, category, id, ui.OutcomeSucceeded, nil)
	return ui.OutcomeSucceeded
}
