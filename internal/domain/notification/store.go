package notification

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/glassd/internal/shared/id"
	"go.uber.org/zap"
)

// Defaults for Options.
const (
	DefaultCapacity      = 50
	DefaultExpiry        = 60 * time.Second
	DefaultRecent        = 10
	DefaultSweepInterval = 30 * time.Second
)

// NameResolver maps a package to a display name. It must always answer.
type NameResolver interface {
	Resolve(ctx context.Context, pkg string) string
}

// Hooks observe store activity. Any field may be nil; hooks run outside
// the store lock.
type Hooks struct {
	OnAdmit func(Record)
	OnSkip  func(pkg, reason string)
	OnPurge func(removed, remaining int)
}

// Options configure a Store.
type Options struct {
	Capacity      int
	Expiry        time.Duration
	Recent        int
	SweepInterval time.Duration
	Filter        *Filter
	Resolver      NameResolver
	Hooks         Hooks
	Now           func() time.Time
	IDs           *id.Generator
	Logger        *zap.Logger
}

// Store is a bounded, time-limited buffer of recent notifications.
type Store struct {
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	records []Record

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// NewStore creates a store, filling unset options with defaults.
func NewStore(opts Options) *Store {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultExpiry
	}
	if opts.Recent <= 0 {
		opts.Recent = DefaultRecent
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Filter == nil {
		opts.Filter, _ = NewFilter("", nil)
	}
	if opts.Resolver == nil {
		opts.Resolver = passthrough{}
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

	return &Store{
		opts:    opts,
		log:     opts.Logger.Named("store"),
		records: make([]Record, 0, opts.Capacity+1),
		subs:    make(map[int]chan struct{}),
	}
}

// Record admits the event unless its package is filtered, and reports
// whether it did. Admission always signals subscribers.
func (s *Store) Record(ctx context.Context, ev Event) bool {
	if reason, skip := s.opts.Filter.Skip(ev.Package); skip {
		s.log.Debug("skipping notification", zap.String("package", ev.Package), zap.String("reason", reason))
		if s.opts.Hooks.OnSkip != nil {
			s.opts.Hooks.OnSkip(ev.Package, reason)
		}
		return false
	}

	rec := s.build(ctx, ev)

	s.mu.Lock()
	s.records = append(s.records, rec)
	if len(s.records) > s.opts.Capacity {
		s.records = append(s.records[:0], s.records[len(s.records)-s.opts.Capacity:]...)
	}
	total := len(s.records)
	s.mu.Unlock()

	s.log.Debug("notification stored",
		zap.String("id", rec.ID.String()),
		zap.String("app", rec.ApplicationName),
		zap.Int("total", total))

	if s.opts.Hooks.OnAdmit != nil {
		s.opts.Hooks.OnAdmit(rec)
	}
	s.broadcast()
	return true
}

func (s *Store) build(ctx context.Context, ev Event) Record {
	ts := ev.PostTime
	if ts == 0 {
		ts = s.opts.Now().UnixMilli()
	}

	rec := Record{
		ID:              id.NotificationID(s.opts.IDs.GenerateWithPrefix(id.NotificationPrefix)),
		ApplicationName: s.opts.Resolver.Resolve(ctx, ev.Package),
		Title:           cleanText(ev.Title),
		Content:         cleanText(ev.Content),
		Timestamp:       ts,
		SourcePackage:   ev.Package,
		SmallIconID:     ev.SmallIconID,
	}

	if ev.LargeIcon != "" {
		icon, err := DecodeIcon(ev.LargeIcon)
		if err != nil {
			s.log.Warn("dropping notification icon", zap.String("package", ev.Package), zap.Error(err))
		} else {
			rec.LargeIcon = icon
		}
	}
	return rec
}

// Recent purges expired records and returns up to the recent window of the
// newest survivors, oldest first. The slice is a copy.
func (s *Store) Recent() []Record {
	s.mu.Lock()
	removed := s.purgeLocked()
	start := len(s.records) - s.opts.Recent
	if start < 0 {
		start = 0
	}
	out := make([]Record, len(s.records)-start)
	copy(out, s.records[start:])
	remaining := len(s.records)
	s.mu.Unlock()

	s.afterPurge(removed, remaining)
	return out
}

// Sweep purges expired records, signalling subscribers when any were
// removed. It returns the number removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	removed := s.purgeLocked()
	remaining := len(s.records)
	s.mu.Unlock()

	s.afterPurge(removed, remaining)
	if removed > 0 {
		s.log.Debug("cleaned up expired notifications", zap.Int("removed", removed))
		s.broadcast()
	}
	return removed
}

// Run sweeps on the configured interval until ctx is done.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// purgeLocked drops records older than the expiry. Callers hold s.mu.
func (s *Store) purgeLocked() int {
	now := s.opts.Now().UnixMilli()
	limit := s.opts.Expiry.Milliseconds()

	kept := s.records[:0]
	for _, r := range s.records {
		if now-r.Timestamp > limit {
			continue
		}
		kept = append(kept, r)
	}
	removed := len(s.records) - len(kept)
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = Record{}
	}
	s.records = kept
	return removed
}

func (s *Store) afterPurge(removed, remaining int) {
	if removed > 0 && s.opts.Hooks.OnPurge != nil {
		s.opts.Hooks.OnPurge(removed, remaining)
	}
}

// Len returns the number of records held, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Capacity returns the configured capacity.
func (s *Store) Capacity() int {
	return s.opts.Capacity
}

// Subscribe registers for change signals. The channel holds at most one
// pending signal; later signals coalesce into it. Call cancel to
// unsubscribe.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	key := s.nextID
	s.nextID++
	s.subs[key] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, key)
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

func (s *Store) broadcast() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

type passthrough struct{}

func (passthrough) Resolve(_ context.Context, pkg string) string { return pkg }
