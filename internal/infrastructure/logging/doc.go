// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for log shippers
//   - Development: coloured console output
//
// Components accept a *zap.Logger in their constructors. A nil logger is
// replaced with a no-op one via OrNop, so tests can pass nil.
//
// Example Usage:
//
//	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
