package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/glassd/internal/domain/display"
	"github.com/GriffinCanCode/glassd/internal/domain/input"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 16
)

// InputHandler applies gamepad events.
type InputHandler interface {
	HandleKey(ctx context.Context, ev input.KeyEvent) (input.Action, bool, error)
	HandleMotion(ev input.MotionEvent) (input.Action, bool)
}

// FrameSource supplies the frame sent on connect.
type FrameSource interface {
	Latest() display.Frame
}

// FrameSourceFunc adapts a function to FrameSource.
type FrameSourceFunc func() display.Frame

// Latest calls f.
func (f FrameSourceFunc) Latest() display.Frame { return f() }

// Metrics records connection and message counts.
type Metrics interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
}

// Options configure a Hub.
type Options struct {
	Input   InputHandler
	Frames  FrameSource
	Metrics Metrics
	Logger  *zap.Logger
}

// Message is the inbound envelope.
type Message struct {
	Type     string  `json:"type"`
	Key      string  `json:"key,omitempty"`
	Action   string  `json:"action,omitempty"`
	DeviceID int     `json:"device_id,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
}

// Hub tracks connected renderers and fans frames out to them.
type Hub struct {
	opts     Options
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// enqueue queues a message without blocking. It reports false when the
// client is gone or its buffer is full.
func (c *client) enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// NewHub creates an empty hub.
func NewHub(opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Hub{
		opts: opts,
		log:  opts.Logger.Named("ws"),
		upgrader: websocket.Upgrader{
			// Renderers run on the phone or a local browser.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Handle upgrades the request and serves the client until it disconnects.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(cl)
	defer h.unregister(cl)

	go h.writePump(cl)

	h.sendTo(cl, "system", gin.H{"type": "system", "client_id": cl.id, "message": "connected to glassd"})
	if h.opts.Frames != nil {
		h.sendTo(cl, "frame", frameMessage(h.opts.Frames.Latest()))
	}

	h.readPump(c.Request.Context(), cl)
}

// Publish sends a frame to every client.
func (h *Hub) Publish(f display.Frame) {
	b, err := sonic.Marshal(frameMessage(f))
	if err != nil {
		h.log.Error("failed to encode frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cl := range h.clients {
		if cl.enqueue(b) {
			h.record("out", "frame")
		} else {
			h.log.Debug("dropping frame for slow client", zap.String("client", cl.id))
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cl := range h.clients {
		_ = cl.conn.Close()
	}
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	h.clients[cl.id] = cl
	total := len(h.clients)
	h.mu.Unlock()

	if h.opts.Metrics != nil {
		h.opts.Metrics.IncWSConnections()
	}
	h.log.Info("client connected", zap.String("client", cl.id), zap.Int("clients", total))
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl.id]
	delete(h.clients, cl.id)
	total := len(h.clients)
	h.mu.Unlock()

	cl.close()
	if !ok {
		return
	}
	if h.opts.Metrics != nil {
		h.opts.Metrics.DecWSConnections()
	}
	h.log.Info("client disconnected", zap.String("client", cl.id), zap.Int("clients", total))
}

func (h *Hub) readPump(ctx context.Context, cl *client) {
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read error", zap.String("client", cl.id), zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.sendError(cl, "malformed message")
			continue
		}
		h.record("in", messageLabel(msg.Type))
		h.dispatch(ctx, cl, msg)
	}
}

func (h *Hub) dispatch(ctx context.Context, cl *client, msg Message) {
	switch msg.Type {
	case "ping":
		h.sendTo(cl, "pong", gin.H{"type": "pong", "timestamp": time.Now().Unix()})
	case "key":
		if h.opts.Input == nil {
			h.sendError(cl, "input is not available")
			return
		}
		action, consumed, err := h.opts.Input.HandleKey(ctx, input.KeyEvent{
			DeviceID: msg.DeviceID,
			Key:      msg.Key,
			Action:   msg.Action,
		})
		if err != nil {
			h.sendError(cl, err.Error())
			return
		}
		h.sendTo(cl, "input", gin.H{"type": "input", "action": action, "consumed": consumed})
	case "motion":
		if h.opts.Input == nil {
			h.sendError(cl, "input is not available")
			return
		}
		action, consumed := h.opts.Input.HandleMotion(input.MotionEvent{DeviceID: msg.DeviceID, X: msg.X, Y: msg.Y})
		h.sendTo(cl, "input", gin.H{"type": "input", "action": action, "consumed": consumed})
	default:
		h.sendError(cl, "unknown message type")
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case b, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				h.log.Debug("websocket write failed", zap.String("client", cl.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) sendTo(cl *client, msgType string, v interface{}) {
	b, err := sonic.Marshal(v)
	if err != nil {
		h.log.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	if cl.enqueue(b) {
		h.record("out", msgType)
	}
}

func (h *Hub) sendError(cl *client, message string) {
	h.sendTo(cl, "error", gin.H{
		"type":      "error",
		"message":   message,
		"timestamp": time.Now().Unix(),
	})
}

func (h *Hub) record(direction, msgType string) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.RecordWSMessage(direction, msgType)
	}
}

func messageLabel(t string) string {
	switch t {
	case "ping", "key", "motion":
		return t
	}
	return "unknown"
}

func frameMessage(f display.Frame) gin.H {
	return gin.H{"type": "frame", "frame": f}
}
