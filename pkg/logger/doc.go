// Package logger provides the structured logging interface used across procaredl.
//
// It wraps zerolog behind a small Logger interface so components can attach
// fields (run_id, window, file) without depending on zerolog directly.
// Console output is written to stderr because stdout carries the
// "processed/total" progress lines that embedding callers parse.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Window fetched", map[string]interface{}{
//	    "from":   from,
//	    "photos": 42,
//	})
//
// Tests use NewTestLogger to capture and assert on messages, or NewNopLogger
// to discard them.
package logger
