// Package logging provides structured logging for the retype tools.
//
// This package wraps a global zap logger with convenience functions and a
// few domain helpers for the store server, the store client and the
// browser bridge.
//
// # Log Levels
//
//   - Debug: store calls, bridge messages
//   - Info: connections, served requests, lifecycle
//   - Warn: failed store calls, dropped connections
//   - Error: startup failures
//
// # Structured Logging
//
//	logging.Info("Component saved",
//	    zap.String("component_id", "hero"),
//	    zap.Int("bytes", 512),
//	)
//
// # Configuration
//
// Logging is silent unless a level is passed or RETYPE_LOG_LEVEL is set:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// The terminal editor uses InitializeTo with a file path so log lines do
// not land on the editor screen.
package logging
