// Package logger provides the structured logging interface used across followsync.
//
// It wraps zerolog behind the Logger interface so packages can take a logger
// as a dependency and tests can substitute TestLogger or the nop logger.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("fetch finished", map[string]interface{}{
//	    "followers": 137,
//	})
//
// Console output is written to stderr with colored levels. When a log file
// is configured, events are also appended to that file as JSON.
package logger
