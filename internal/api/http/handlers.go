package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/glassd/internal/api/ws"
	"github.com/GriffinCanCode/glassd/internal/domain/display"
	"github.com/GriffinCanCode/glassd/internal/domain/input"
	"github.com/GriffinCanCode/glassd/internal/domain/launcher"
	"github.com/GriffinCanCode/glassd/internal/domain/navigation"
	"github.com/GriffinCanCode/glassd/internal/domain/notification"
	"github.com/GriffinCanCode/glassd/internal/domain/route"
	"github.com/GriffinCanCode/glassd/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by the root endpoint.
const Version = "0.3.0"

// Deps are the components the handlers drive.
type Deps struct {
	Store   *notification.Store
	Menu    *launcher.Menu
	Input   *input.Controller
	Planner *route.Planner
	Display *display.Presenter
	Hub     *ws.Hub
	Metrics *monitoring.Metrics
	Logger  *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	store   *notification.Store
	menu    *launcher.Menu
	input   *input.Controller
	planner *route.Planner
	display *display.Presenter
	hub     *ws.Hub
	metrics *monitoring.Metrics
	log     *zap.Logger
	started time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(d Deps) *Handlers {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Handlers{
		store:   d.Store,
		menu:    d.Menu,
		input:   d.Input,
		planner: d.Planner,
		display: d.Display,
		hub:     d.Hub,
		metrics: d.Metrics,
		log:     d.Logger.Named("api"),
		started: time.Now(),
	}
}

// Register mounts every route on r.
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	// Notification mirror
	r.POST("/notifications", h.PostNotification)
	r.GET("/notifications", h.ListNotifications)
	r.GET("/notifications/stats", h.NotificationStats)
	r.POST("/classify", h.Classify)

	// Launcher
	r.GET("/launcher", h.LauncherState)
	r.POST("/launcher/:command", h.LauncherCommand)

	// Gamepad
	r.POST("/input/key", h.InputKey)
	r.POST("/input/motion", h.InputMotion)
	r.POST("/input/device", h.InputDevice)

	// Phone state
	r.POST("/device/battery", h.DeviceBattery)
	r.POST("/device/location", h.DeviceLocation)
	r.POST("/logs", h.StreamLogs)

	r.GET("/route", h.Route)

	// Display
	r.GET("/display/frame", h.DisplayFrame)
	if h.hub != nil {
		r.GET("/display/stream", h.hub.Handle)
	}

	// Metrics
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
		r.GET("/metrics/json", h.MetricsJSON)
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "glassd",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":         "healthy",
		"uptime_seconds": time.Since(h.started).Seconds(),
		"store": gin.H{
			"count":    h.store.Len(),
			"capacity": h.store.Capacity(),
		},
		"launcher": gin.H{
			"apps":    h.menu.Len(),
			"visible": h.menu.Visible(),
		},
		"gamepad": h.input.Status(),
	}
	if h.hub != nil {
		resp["stream_clients"] = h.hub.Count()
	}
	if _, fix := h.planner.Position(); fix {
		resp["location"] = "fix"
	} else {
		resp["location"] = "default"
	}
	c.JSON(http.StatusOK, resp)
}

// PostNotification admits a posted notification.
func (h *Handlers) PostNotification(c *gin.Context) {
	var ev notification.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification: " + err.Error()})
		return
	}
	if err := ev.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admitted := h.store.Record(c.Request.Context(), ev)
	c.JSON(http.StatusAccepted, gin.H{"admitted": admitted})
}

// ListNotifications returns the recent window split by kind.
func (h *Handlers) ListNotifications(c *gin.Context) {
	recent := h.store.Recent()
	nav, general := navigation.Split(recent)
	if nav == nil {
		nav = []notification.Record{}
	}
	if general == nil {
		general = []notification.Record{}
	}

	c.JSON(http.StatusOK, gin.H{
		"navigation": nav,
		"general":    general,
		"count":      len(recent),
	})
}

// NotificationStats summarises the store.
func (h *Handlers) NotificationStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}

// Classify classifies raw fields without storing anything.
func (h *Handlers) Classify(c *gin.Context) {
	var in navigation.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"kind": navigation.ClassifyInput(in)}
	if kw := navigation.MatchKeyword(in.Title, in.Content); kw != "" {
		resp["keyword"] = kw
	}
	c.JSON(http.StatusOK, resp)
}

// LauncherState returns the menu snapshot.
func (h *Handlers) LauncherState(c *gin.Context) {
	c.JSON(http.StatusOK, h.menu.Snapshot())
}

// LauncherCommand drives the menu directly.
func (h *Handlers) LauncherCommand(c *gin.Context) {
	command := c.Param("command")

	switch command {
	case "show":
		h.menu.Show()
	case "hide":
		h.menu.Hide()
	case "up":
		h.menu.NavigateUp()
	case "down":
		h.menu.NavigateDown()
	case "select":
		h.menu.SelectCurrentItem(c.Request.Context())
	case "reload":
		if err := h.menu.Load(c.Request.Context()); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, launcher.ErrEmptyCatalog) {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown launcher command: " + command})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLauncherAction(command)
	}
	c.JSON(http.StatusOK, h.menu.Snapshot())
}

// InputKey applies a gamepad key event.
func (h *Handlers) InputKey(c *gin.Context) {
	var ev input.KeyEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, consumed, err := h.input.HandleKey(c.Request.Context(), ev)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": action, "consumed": consumed})
}

// InputMotion applies a stick movement.
func (h *Handlers) InputMotion(c *gin.Context) {
	var ev input.MotionEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, consumed := h.input.HandleMotion(ev)
	c.JSON(http.StatusOK, gin.H{"action": action, "consumed": consumed})
}

// DeviceChange reports a controller appearing or going away.
type DeviceChange struct {
	Event  string       `json:"event" binding:"required,oneof=connected disconnected"`
	Device input.Device `json:"device"`
}

// InputDevice handles controller connect and disconnect reports.
func (h *Handlers) InputDevice(c *gin.Context) {
	var req DeviceChange
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var changed bool
	if req.Event == "connected" {
		changed = h.input.Connect(req.Device)
	} else {
		changed = h.input.Disconnect(req.Device.ID)
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed, "status": h.input.Status()})
}

// BatteryReport is the phone battery state.
type BatteryReport struct {
	Level    *int `json:"level" binding:"required"`
	Charging bool `json:"charging"`
}

// DeviceBattery records a battery report.
func (h *Handlers) DeviceBattery(c *gin.Context) {
	var req BatteryReport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b := display.Battery{Level: *req.Level, Charging: req.Charging}
	h.display.SetBattery(b)
	c.JSON(http.StatusOK, gin.H{"battery": b.String()})
}

// DeviceLocation records a location fix.
func (h *Handlers) DeviceLocation(c *gin.Context) {
	var pt route.Point
	if err := c.ShouldBindJSON(&pt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.planner.SetPosition(pt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"position": pt})
}

// Route plans from the current position.
func (h *Handlers) Route(c *gin.Context) {
	c.JSON(http.StatusOK, h.planner.Plan(c.Request.Context()))
}

// DisplayFrame returns the last frame, or a fresh one with ?fresh=true.
func (h *Handlers) DisplayFrame(c *gin.Context) {
	if c.Query("fresh") == "true" {
		c.JSON(http.StatusOK, h.display.Refresh())
		return
	}
	c.JSON(http.StatusOK, h.display.Latest())
}

// MetricsJSON returns a compact metrics summary with store statistics.
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now(),
		"summary":   h.metrics.Snapshot(),
		"store":     h.store.Stats(),
	})
}
