// Package ws streams display frames to renderers over WebSocket and accepts
// gamepad input from them.
//
// Every connected client gets a welcome message and the latest frame, then
// each frame the presenter publishes. Slow clients miss frames rather than
// blocking the presenter.
//
// Message Types (Client → Server):
//   - key: D-pad or button press {key, action, device_id}
//   - motion: left stick position {x, y, device_id}
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Welcome with the client id
//   - frame: A rendered display frame
//   - input: Result of a key or motion message
//   - pong: Reply to ping
//   - error: Error occurred
//
// Example Usage:
//
//	hub := ws.NewHub(ws.Options{Input: controller, Frames: presenter})
//	router.GET("/display/stream", hub.Handle)
package ws
