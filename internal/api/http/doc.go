// Package http implements the REST surface of the daemon.
//
// The phone companion posts notifications, gamepad events, battery and
// location reports here; renderers read frames from /display/frame or
// subscribe to /display/stream.
package http
