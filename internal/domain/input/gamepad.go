// Package input maps gamepad events onto launcher menu commands.
package input

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Thresholds on the left stick axes.
const (
	MotionThreshold = 0.2
	ScrollThreshold = 0.7
)

// ErrUnknownKey is returned by ParseKey.
var ErrUnknownKey = errors.New("unknown key")

// Key is a gamepad or D-pad key.
type Key string

const (
	KeyUp     Key = "DPAD_UP"
	KeyDown   Key = "DPAD_DOWN"
	KeyLeft   Key = "DPAD_LEFT"
	KeyRight  Key = "DPAD_RIGHT"
	KeyCenter Key = "DPAD_CENTER"
	KeyA      Key = "BUTTON_A"
	KeyB      Key = "BUTTON_B"
	KeyStart  Key = "BUTTON_START"
	KeyMenu   Key = "MENU"
	KeyBack   Key = "BACK"
)

var keys = map[Key]struct{}{
	KeyUp: {}, KeyDown: {}, KeyLeft: {}, KeyRight: {}, KeyCenter: {},
	KeyA: {}, KeyB: {}, KeyStart: {}, KeyMenu: {}, KeyBack: {},
}

// ParseKey accepts key names case-insensitively, with or without the
// "KEYCODE_" prefix.
func ParseKey(s string) (Key, error) {
	k := Key(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "KEYCODE_"))
	if _, ok := keys[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
	return k, nil
}

// Action is what an event did to the menu.
type Action string

const (
	ActionNone   Action = "none"
	ActionUp     Action = "up"
	ActionDown   Action = "down"
	ActionSelect Action = "select"
	ActionShow   Action = "show"
	ActionHide   Action = "hide"
)

// Menu is the set of launcher commands input can drive.
type Menu interface {
	Show()
	Hide()
	NavigateUp()
	NavigateDown()
	SelectCurrentItem(ctx context.Context)
	Visible() bool
}

// Device describes an input device reported by the phone.
type Device struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Sources []string `json:"sources"`
}

// IsGameController reports whether the device has a gamepad, joystick or
// D-pad source.
func (d Device) IsGameController() bool {
	for _, s := range d.Sources {
		switch strings.ToLower(s) {
		case "gamepad", "joystick", "dpad":
			return true
		}
	}
	return false
}

// KeyEvent is a key press. Only "down" events act.
type KeyEvent struct {
	DeviceID int    `json:"device_id"`
	Key      string `json:"key"`
	Action   string `json:"action"`
}

// MotionEvent carries the left stick position in [-1, 1].
type MotionEvent struct {
	DeviceID int     `json:"device_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Status is the controller connection state.
type Status struct {
	Connected    bool   `json:"connected"`
	Name         string `json:"name,omitempty"`
	Instructions string `json:"instructions"`
}

const (
	connectedHelp    = "🎮 START: Menu • ↕️ D-Pad: Naviguer • 🎯 A: Sélectionner • 🔙 B: Fermer"
	disconnectedHelp = "🎮 Connectez une manette Bluetooth pour utiliser le menu"
)

// Controller routes events from the connected gamepad to a Menu.
type Controller struct {
	menu Menu
	log  *zap.Logger

	mu     sync.Mutex
	device *Device

	onStatus func(Status)
}

// NewController creates a controller with no gamepad attached.
func NewController(menu Menu, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{menu: menu, log: log.Named("input")}
}

// OnStatusChange registers fn to run after connects and disconnects.
func (c *Controller) OnStatusChange(fn func(Status)) {
	c.mu.Lock()
	c.onStatus = fn
	c.mu.Unlock()
}

// Connect adopts d as the active gamepad if it is a game controller.
func (c *Controller) Connect(d Device) bool {
	if !d.IsGameController() {
		c.log.Debug("ignoring non-gamepad device", zap.Int("device", d.ID), zap.String("name", d.Name))
		return false
	}

	c.mu.Lock()
	dev := d
	c.device = &dev
	fn := c.onStatus
	c.mu.Unlock()

	c.log.Info("gamepad connected", zap.Int("device", d.ID), zap.String("name", d.Name))
	if fn != nil {
		fn(c.Status())
	}
	return true
}

// Disconnect forgets the gamepad with the given id and hides the menu.
func (c *Controller) Disconnect(id int) bool {
	c.mu.Lock()
	if c.device == nil || c.device.ID != id {
		c.mu.Unlock()
		return false
	}
	c.device = nil
	fn := c.onStatus
	c.mu.Unlock()

	c.log.Info("gamepad disconnected", zap.Int("device", id))
	if c.menu.Visible() {
		c.menu.Hide()
	}
	if fn != nil {
		fn(c.Status())
	}
	return true
}

// Status returns the current connection state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return Status{Instructions: disconnectedHelp}
	}
	return Status{Connected: true, Name: c.device.Name, Instructions: connectedHelp}
}

func (c *Controller) accepts(deviceID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device != nil && c.device.ID == deviceID
}

// HandleKey applies a key event. It reports whether the event was consumed.
func (c *Controller) HandleKey(ctx context.Context, ev KeyEvent) (Action, bool, error) {
	if !c.accepts(ev.DeviceID) {
		return ActionNone, false, nil
	}
	if ev.Action != "" && !strings.EqualFold(ev.Action, "down") {
		return ActionNone, false, nil
	}

	key, err := ParseKey(ev.Key)
	if err != nil {
		return ActionNone, false, err
	}

	visible := c.menu.Visible()
	action := ActionNone
	switch key {
	case KeyUp:
		c.menu.NavigateUp()
		action = ActionUp
	case KeyDown:
		c.menu.NavigateDown()
		action = ActionDown
	case KeyCenter:
		c.menu.SelectCurrentItem(ctx)
		action = ActionSelect
	case KeyLeft:
		if !visible {
			c.menu.Show()
			action = ActionShow
		}
	case KeyRight:
		if visible {
			c.menu.Hide()
			action = ActionHide
		}
	case KeyStart, KeyMenu:
		if visible {
			c.menu.Hide()
			action = ActionHide
		} else {
			c.menu.Show()
			action = ActionShow
		}
	case KeyB, KeyBack:
		if visible {
			c.menu.Hide()
			action = ActionHide
		}
	case KeyA:
		if visible {
			c.menu.SelectCurrentItem(ctx)
			action = ActionSelect
		} else {
			c.menu.Show()
			action = ActionShow
		}
	}

	c.log.Debug("key handled", zap.String("key", string(key)), zap.String("action", string(action)))
	return action, true, nil
}

// HandleMotion applies a stick movement. Small movements are not consumed;
// only a strong vertical push scrolls.
func (c *Controller) HandleMotion(ev MotionEvent) (Action, bool) {
	if !c.accepts(ev.DeviceID) {
		return ActionNone, false
	}
	if math.Abs(ev.X) <= MotionThreshold && math.Abs(ev.Y) <= MotionThreshold {
		return ActionNone, false
	}
	if math.Abs(ev.Y) <= ScrollThreshold {
		return ActionNone, true
	}
	if ev.Y < 0 {
		c.menu.NavigateUp()
		return ActionUp, true
	}
	c.menu.NavigateDown()
	return ActionDown, true
}
