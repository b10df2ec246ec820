// Package logger provides the structured logging interface used across tagharvest.
//
// It wraps zerolog with a small interface so engines can take a Logger and
// tests can pass NewTestLogger or NewNopLogger instead.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("category done", map[string]interface{}{
//	    "category": "MeToo",
//	    "ids":      500,
//	})
package logger
