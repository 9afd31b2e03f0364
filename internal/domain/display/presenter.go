// Package display renders display frames for the glasses and pushes them to
// connected renderers.
package display

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/glassd/internal/domain/input"
	"github.com/GriffinCanCode/glassd/internal/domain/launcher"
	"github.com/GriffinCanCode/glassd/internal/domain/navigation"
	"github.com/GriffinCanCode/glassd/internal/domain/notification"
	"github.com/GriffinCanCode/glassd/internal/shared/id"
	"go.uber.org/zap"
)

// Notifications is the read side of the notification store.
type Notifications interface {
	Recent() []notification.Record
	Subscribe() (<-chan struct{}, func())
}

// MenuSource exposes the launcher state.
type MenuSource interface {
	Snapshot() launcher.Snapshot
}

// GamepadSource exposes the controller state.
type GamepadSource interface {
	Status() input.Status
}

// Sink receives rendered frames.
type Sink interface {
	Publish(Frame)
}

// Options configure a Presenter.
type Options struct {
	Store    Notifications
	Menu     MenuSource
	Gamepad  GamepadSource
	Banner   *navigation.Banner
	Sink     Sink
	Locale   string
	Tick     time.Duration
	Location *time.Location
	Now      func() time.Time
	IDs      *id.Generator
	Logger   *zap.Logger
}

// Presenter recomputes frames whenever something visible changes.
type Presenter struct {
	opts Options
	log  *zap.Logger

	dirty chan struct{}

	mu      sync.RWMutex
	battery Battery
	last    Frame
}

// NewPresenter creates a presenter.
func NewPresenter(opts Options) *Presenter {
	if opts.Banner == nil {
		opts.Banner = navigation.NewBanner(0)
	}
	if opts.Locale == "" {
		opts.Locale = "fr"
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IDs == nil {
		opts.IDs = id.NewGenerator()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Presenter{
		opts:    opts,
		log:     opts.Logger.Named("display"),
		dirty:   make(chan struct{}, 1),
		battery: UnknownBattery,
	}
}

// SetBattery records a battery report and schedules a refresh.
func (p *Presenter) SetBattery(b Battery) {
	p.mu.Lock()
	p.battery = b
	p.mu.Unlock()
	p.Invalidate()
}

// Battery returns the last battery report.
func (p *Presenter) Battery() Battery {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.battery
}

// Invalidate schedules a refresh without blocking.
func (p *Presenter) Invalidate() {
	select {
	case p.dirty <- struct{}{}:
	default:
	}
}

// Render computes a frame from current state.
func (p *Presenter) Render() Frame {
	now := p.opts.Now().In(p.opts.Location)

	var records []notification.Record
	if p.opts.Store != nil {
		records = p.opts.Store.Recent()
	}
	nav, general := navigation.Split(records)
	banner := p.opts.Banner.Update(nav, now)

	var snap launcher.Snapshot
	if p.opts.Menu != nil {
		snap = p.opts.Menu.Snapshot()
	}
	var pad input.Status
	if p.opts.Gamepad != nil {
		pad = p.opts.Gamepad.Status()
	}

	return Frame{
		ID:            id.FrameID(p.opts.IDs.GenerateWithPrefix(id.FramePrefix)),
		Clock:         FormatClock(now),
		Date:          FormatDate(now, p.opts.Locale),
		Battery:       p.Battery().String(),
		Banner:        banner,
		Notifications: Lines(general, p.opts.Location),
		Menu:          Menu(snap, pad),
		RenderedAt:    now,
	}
}

// Refresh renders, remembers and publishes a frame.
func (p *Presenter) Refresh() Frame {
	f := p.Render()

	p.mu.Lock()
	p.last = f
	p.mu.Unlock()

	if p.opts.Sink != nil {
		p.opts.Sink.Publish(f)
	}
	return f
}

// Latest returns the last published frame, rendering one if none exists.
func (p *Presenter) Latest() Frame {
	p.mu.RLock()
	f := p.last
	p.mu.RUnlock()
	if f.ID == "" {
		return p.Refresh()
	}
	return f
}

// Run refreshes on store changes, invalidations and every tick until ctx
// is done.
func (p *Presenter) Run(ctx context.Context) {
	var changes <-chan struct{}
	if p.opts.Store != nil {
		ch, cancel := p.opts.Store.Subscribe()
		defer cancel()
		changes = ch
	}

	ticker := time.NewTicker(p.opts.Tick)
	defer ticker.Stop()

	p.Refresh()
	p.log.Info("display presenter started", zap.Duration("tick", p.opts.Tick))

	for {
		select {
		case <-ctx.Done():
			p.log.Info("display presenter stopped")
			return
		case <-changes:
			p.Refresh()
		case <-p.dirty:
			p.Refresh()
		case <-ticker.C:
			p.Refresh()
		}
	}
}
