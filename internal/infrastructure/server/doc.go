// Package server wires the daemon together.
//
// New builds every component from configuration:
//   - Notification store with the app-name chain and metric hooks
//   - Launcher menu over the on-disk catalog, driven by the gamepad
//   - Route planner with the optional routing service client
//   - Display presenter publishing frames to the WebSocket hub
//   - Gin router with tracing, metrics, CORS, gzip and rate limiting
//
// Run starts the store sweep, the presenter loop and the catalog load,
// serves HTTP, and shuts everything down when the context is cancelled.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer srv.Close()
//	return srv.Run(ctx)
package server
