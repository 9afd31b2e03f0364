// Package config provides 12-factor configuration management for glassd.
//
// Configuration is loaded from environment variables with defaults. A .env
// file in the working directory is merged first; variables already present
// in the environment win.
//
// Configuration Sections:
//   - Server: HTTP listener settings
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting
//   - Store: notification buffer capacity, expiry and skip patterns
//   - Launcher: catalog directory, favorites, window size
//   - Display: locale, clock tick, navigation banner timeout
//   - Route: optional routing service
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Listening on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
package config
