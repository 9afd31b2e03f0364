package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/glassd/internal/domain/display"
	"github.com/GriffinCanCode/glassd/internal/domain/input"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInput struct {
	mu   sync.Mutex
	keys []input.KeyEvent
}

func (f *fakeInput) HandleKey(_ context.Context, ev input.KeyEvent) (input.Action, bool, error) {
	f.mu.Lock()
	f.keys = append(f.keys, ev)
	f.mu.Unlock()
	if _, err := input.ParseKey(ev.Key); err != nil {
		return input.ActionNone, false, err
	}
	return input.ActionShow, true, nil
}

func (f *fakeInput) HandleMotion(ev input.MotionEvent) (input.Action, bool) {
	if ev.Y > input.ScrollThreshold {
		return input.ActionDown, true
	}
	return input.ActionNone, false
}

type fixedFrames struct{}

func (fixedFrames) Latest() display.Frame { return display.Frame{ID: "frm_initial", Clock: "09:30"} }

type countingMetrics struct {
	mu       sync.Mutex
	conns    int
	messages map[string]int
}

func (m *countingMetrics) IncWSConnections() { m.mu.Lock(); m.conns++; m.mu.Unlock() }
func (m *countingMetrics) DecWSConnections() { m.mu.Lock(); m.conns--; m.mu.Unlock() }
func (m *countingMetrics) RecordWSMessage(direction, msgType string) {
	m.mu.Lock()
	m.messages[direction+"/"+msgType]++
	m.mu.Unlock()
}

func (m *countingMetrics) connections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conns
}

func startHub(t *testing.T, opts Options) (*Hub, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(opts)
	router := gin.New()
	router.GET("/display/stream", hub.Handle)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/display/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return hub, conn
}

func readType(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestConnectSendsWelcomeAndLatestFrame(t *testing.T) {
	metrics := &countingMetrics{messages: map[string]int{}}
	hub, conn := startHub(t, Options{Frames: fixedFrames{}, Metrics: metrics})

	welcome := readType(t, conn)
	assert.Equal(t, "system", welcome["type"])
	assert.NotEmpty(t, welcome["client_id"])

	frame := readType(t, conn)
	assert.Equal(t, "frame", frame["type"])
	body := frame["frame"].(map[string]interface{})
	assert.Equal(t, "frm_initial", body["id"])
	assert.Equal(t, "09:30", body["clock"])

	assert.Equal(t, 1, hub.Count())
	assert.Equal(t, 1, metrics.connections())
}

func TestPublishReachesClients(t *testing.T) {
	hub, conn := startHub(t, Options{})
	readType(t, conn) // welcome

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(display.Frame{ID: "frm_next", Battery: "🔋 50%"})

	msg := readType(t, conn)
	assert.Equal(t, "frame", msg["type"])
	assert.Equal(t, "🔋 50%", msg["frame"].(map[string]interface{})["battery"])
}

func TestInputMessages(t *testing.T) {
	in := &fakeInput{}
	_, conn := startHub(t, Options{Input: in})
	readType(t, conn)

	tests := []struct {
		name     string
		send     Message
		wantType string
		check    func(t *testing.T, msg map[string]interface{})
	}{
		{
			name:     "key press",
			send:     Message{Type: "key", Key: "BUTTON_START", Action: "down", DeviceID: 3},
			wantType: "input",
			check: func(t *testing.T, msg map[string]interface{}) {
				assert.Equal(t, "show", msg["action"])
				assert.Equal(t, true, msg["consumed"])
			},
		},
		{
			name:     "unknown key",
			send:     Message{Type: "key", Key: "VOLUME_UP"},
			wantType: "error",
		},
		{
			name:     "strong stick push",
			send:     Message{Type: "motion", Y: 0.9},
			wantType: "input",
			check: func(t *testing.T, msg map[string]interface{}) {
				assert.Equal(t, "down", msg["action"])
			},
		},
		{
			name:     "ping",
			send:     Message{Type: "ping"},
			wantType: "pong",
		},
		{
			name:     "unknown type",
			send:     Message{Type: "chat"},
			wantType: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteJSON(tt.send))
			msg := readType(t, conn)
			assert.Equal(t, tt.wantType, msg["type"])
			if tt.check != nil {
				tt.check(t, msg)
			}
		})
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	require.Len(t, in.keys, 2)
	assert.Equal(t, 3, in.keys[0].DeviceID)
}

func TestDisconnectUnregisters(t *testing.T) {
	metrics := &countingMetrics{messages: map[string]int{}}
	hub, conn := startHub(t, Options{Metrics: metrics})
	readType(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, metrics.connections())
}
