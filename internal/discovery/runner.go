package discovery

import (
	"context"

	"tagharvest/pkg/checkpoint"
	"tagharvest/pkg/logger"
	"tagharvest/pkg/slug"
	"tagharvest/pkg/ui"
)

// TrackerCategory groups discovery outcomes in the progress tracker
const TrackerCategory = "discover"

// Collector runs one discovery pass
type Collector interface {
	Collect(ctx context.Context, tag string, target int) Result
}

// Runner walks a tag list, merging every pass into the checkpoint and
// persisting it after each tag
type Runner struct {
	Collector Collector
	Store     *checkpoint.Store
	Target    int
	Session   SessionSaver
	Tracker   *ui.Tracker
	Logger    logger.Logger
}

// Run discovers IDs for each tag and returns the resulting checkpoint.
// Tags already holding Target IDs are skipped; an invalid tag is rejected
// without stopping the run. A cancelled ctx ends the run after the
// current tag has been persisted.
func (r *Runner) Run(ctx context.Context, tags []string) checkpoint.Checkpoint {
	log := r.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	tracker := r.Tracker
	if tracker == nil {
		tracker = ui.NewTracker()
	}

	cp := r.Store.Load()
	tracker.Begin(TrackerCategory, len(tags))
	logger.LogComponentStart(log, "discovery", map[string]interface{}{
		"tags":       len(tags),
		"target":     r.Target,
		"checkpoint": r.Store.Path(),
	})

	for _, raw := range tags {
		if ctx.Err() != nil {
			log.Warn("discovery interrupted, remaining tags left for the next run")
			break
		}

		tag, err := slug.Tag(raw)
		if err != nil {
			logger.LogItem(log, TrackerCategory, raw, ui.OutcomeFailed, err)
			tracker.Record(TrackerCategory, raw, ui.OutcomeFailed)
			continue
		}
		if have := cp.Count(tag); have >= r.Target {
			log.InfoWithFields("category already complete", map[string]interface{}{
				"category": tag,
				"ids":      have,
			})
			tracker.Record(TrackerCategory, tag, ui.OutcomeSkipped)
			continue
		}

		res := r.Collector.Collect(ctx, tag, r.Target)
		cp = checkpoint.Merge(cp, tag, res.IDs)
		if err := r.Store.Persist(cp); err != nil {
			log.WithError(err).ErrorWithFields("failed to persist checkpoint", map[string]interface{}{
				"category": tag,
			})
		}

		log.InfoWithFields("category done", map[string]interface{}{
			"category": tag,
			"found":    len(res.IDs),
			"total":    cp.Count(tag),
		})
		outcome := ui.OutcomeSucceeded
		if len(res.IDs) == 0 {
			outcome = ui.OutcomeFailed
		}
		tracker.Record(TrackerCategory, tag, outcome)
	}

	if r.Session != nil {
		if err := r.Session.SaveSession(); err != nil {
			log.WithError(err).Warn("failed to save browser session")
		}
	}

	stats := tracker.Finish(TrackerCategory)
	logger.LogComponentStop(log, "discovery", stats.String())
	return cp
}
