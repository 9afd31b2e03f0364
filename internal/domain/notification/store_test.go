package notification

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hostPackage = "com.arglass.notificationdisplay"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, c *clock) *Store {
	t.Helper()
	filter, err := NewFilter(hostPackage, nil)
	require.NoError(t, err)
	return NewStore(Options{Filter: filter, Now: c.Now})
}

func str(s string) *string { return &s }

func event(pkg string, ts int64, content string) Event {
	return Event{Package: pkg, Content: str(content), PostTime: ts}
}

func TestCapacity(t *testing.T) {
	c := newClock()
	s := newTestStore(t, c)
	ctx := context.Background()
	base := c.Now().UnixMilli() - 30_000

	for i := 0; i < 60; i++ {
		admitted := s.Record(ctx, event(fmt.Sprintf("com.example.app%d", i), base+int64(i), "msg"))
		require.True(t, admitted)
	}

	assert.Equal(t, 50, s.Len())

	recent := s.Recent()
	require.Len(t, recent, 10)
	for i, r := range recent {
		assert.Equal(t, fmt.Sprintf("com.example.app%d", 50+i), r.SourcePackage, "oldest first")
	}
}

func TestEvictsOldestFirst(t *testing.T) {
	c := newClock()
	s := NewStore(Options{Capacity: 3, Recent: 10, Now: c.Now})
	ctx := context.Background()
	now := c.Now().UnixMilli()

	for i := 0; i < 5; i++ {
		s.Record(ctx, event(fmt.Sprintf("p.q.r%d", i), now, "x"))
	}

	recent := s.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "p.q.r2", recent[0].SourcePackage)
	assert.Equal(t, "p.q.r4", recent[2].SourcePackage)
}

func TestExpiry(t *testing.T) {
	c := newClock()
	s := newTestStore(t, c)
	ctx := context.Background()
	now := c.Now().UnixMilli()

	s.Record(ctx, event("com.example.old", now-61_000, "old"))
	s.Record(ctx, event("com.example.fresh", now-59_000, "fresh"))
	s.Record(ctx, event("com.example.edge", now-60_000, "edge"))

	recent := s.Recent()
	pkgs := make([]string, 0, len(recent))
	for _, r := range recent {
		pkgs = append(pkgs, r.SourcePackage)
	}
	assert.Equal(t, []string{"com.example.fresh", "com.example.edge"}, pkgs)
	assert.Equal(t, 2, s.Len(), "read purges expired records")
}

func TestExpiryFollowsClock(t *testing.T) {
	c := newClock()
	s := newTestStore(t, c)
	ctx := context.Background()

	s.Record(ctx, Event{Package: "com.example.chat", Title: str("hi")})
	require.Len(t, s.Recent(), 1)

	c.Advance(59 * time.Second)
	assert.Len(t, s.Recent(), 1)

	c.Advance(2 * time.Second)
	assert.Empty(t, s.Recent())
}

func TestSelfAndSystemFiltering(t *testing.T) {
	tests := []struct {
		name   string
		pkg    string
		reason string
	}{
		{name: "host package", pkg: hostPackage, reason: SkipHost},
		{name: "system ui", pkg: "com.android.systemui", reason: SkipSystem},
		{name: "android", pkg: "android", reason: SkipSystem},
		{name: "android system", pkg: "com.android.system", reason: SkipSystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClock()
			filter, err := NewFilter(hostPackage, nil)
			require.NoError(t, err)

			var skipped []string
			s := NewStore(Options{
				Filter: filter,
				Now:    c.Now,
				Hooks:  Hooks{OnSkip: func(pkg, reason string) { skipped = append(skipped, reason) }},
			})

			before := s.Recent()
			admitted := s.Record(context.Background(), event(tt.pkg, c.Now().UnixMilli(), "hello"))

			assert.False(t, admitted)
			assert.Equal(t, before, s.Recent())
			assert.Equal(t, []string{tt.reason}, skipped)
		})
	}
}

func TestSkipPatterns(t *testing.T) {
	filter, err := NewFilter(hostPackage, []string{"com.samsung.*", "com.{miui,xiaomi}.**"})
	require.NoError(t, err)

	for pkg, want := range map[string]bool{
		"com.samsung.android.messaging": true,
		"com.miui.securitycenter":       true,
		"com.xiaomi.market":             true,
		"com.whatsapp":                  false,
		"com.samsungx.app":              false,
	} {
		_, skip := filter.Skip(pkg)
		assert.Equal(t, want, skip, pkg)
	}

	_, err = NewFilter("", []string{"com.[broken"})
	assert.Error(t, err)
}

func TestRecordResolvesAndCleansText(t *testing.T) {
	c := newClock()
	s := NewStore(Options{
		Now:      c.Now,
		Resolver: resolverFunc(func(pkg string) string { return "Resolved " + pkg }),
	})

	s.Record(context.Background(), Event{
		Package: "com.whatsapp",
		Title:   str("<b>Alice</b>"),
		Content: str("Tom &amp; Jerry <i>arrive</i>"),
	})

	recent := s.Recent()
	require.Len(t, recent, 1)
	r := recent[0]
	assert.Equal(t, "Resolved com.whatsapp", r.ApplicationName)
	assert.Equal(t, "Alice", r.TitleText())
	assert.Equal(t, "Tom & Jerry arrive", r.ContentText())
	assert.Equal(t, c.Now().UnixMilli(), r.Timestamp, "zero post time defaults to now")
	assert.NotEmpty(t, r.ID)
}

func TestRecordKeepsAbsentFields(t *testing.T) {
	c := newClock()
	s := newTestStore(t, c)

	s.Record(context.Background(), Event{Package: "com.example.x", PostTime: c.Now().UnixMilli()})

	r := s.Recent()[0]
	assert.Nil(t, r.Title)
	assert.Nil(t, r.Content)
	assert.Nil(t, r.LargeIcon)
}

func TestBadIconIsDropped(t *testing.T) {
	c := newClock()
	s := newTestStore(t, c)

	admitted := s.Record(context.Background(), Event{Package: "com.example.x", LargeIcon: "not base64!"})
	require.True(t, admitted)
	assert.Nil(t, s.Recent()[0].LargeIcon)
}

func TestSubscribeSignalsOnAdmit(t *testing.T) {
	c := newClock()
	s := newTestStore(t, c)
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Record(context.Background(), event(hostPackage, c.Now().UnixMilli(), "x"))
	select {
	case <-ch:
		t.Fatal("rejected events must not signal")
	default:
	}

	s.Record(context.Background(), event("com.example.a", c.Now().UnixMilli(), "x"))
	select {
	case <-ch:
	default:
		t.Fatal("expected a change signal")
	}
}

func TestSubscribeCoalesces(t *testing.T) {
	c := newClock()
	s := newTestStore(t, c)
	ch, cancel := s.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		s.Record(context.Background(), event("com.example.a", c.Now().UnixMilli(), "x"))
	}

	assert.Len(t, ch, 1)
	<-ch
	assert.Len(t, ch, 0)
}

func TestUnsubscribe(t *testing.T) {
	c := newClock()
	s := newTestStore(t, c)
	ch, cancel := s.Subscribe()
	cancel()
	cancel()

	s.Record(context.Background(), event("com.example.a", c.Now().UnixMilli(), "x"))
	assert.Len(t, ch, 0)
}

func TestSweep(t *testing.T) {
	c := newClock()
	var purged int
	s := NewStore(Options{Now: c.Now, Hooks: Hooks{OnPurge: func(removed, _ int) { purged += removed }}})
	ctx := context.Background()

	s.Record(ctx, event("com.example.a", c.Now().UnixMilli(), "x"))
	s.Record(ctx, event("com.example.b", c.Now().UnixMilli()+30_000, "y"))

	ch, cancel := s.Subscribe()
	defer cancel()

	assert.Equal(t, 0, s.Sweep())
	assert.Len(t, ch, 0, "sweep without removals is silent")

	c.Advance(61 * time.Second)
	assert.Equal(t, 1, s.Sweep())
	assert.Len(t, ch, 1)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, purged)
}

func TestRunStopsOnCancel(t *testing.T) {
	s := NewStore(Options{SweepInterval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestConcurrentRecordAndRead(t *testing.T) {
	s := NewStore(Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Record(ctx, Event{Package: fmt.Sprintf("com.worker.w%d", w)})
				_ = s.Recent()
				if i%10 == 0 {
					s.Sweep()
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, DefaultCapacity, s.Len())
	assert.Len(t, s.Recent(), DefaultRecent)
}

func TestStats(t *testing.T) {
	c := newClock()
	s := newTestStore(t, c)
	ctx := context.Background()
	now := c.Now().UnixMilli()

	assert.Equal(t, 0, s.Stats().Count)

	s.Record(ctx, event("com.whatsapp", now-10_000, "a"))
	s.Record(ctx, event("com.whatsapp", now-20_000, "b"))
	s.Record(ctx, event("com.slack", now-30_000, "c"))
	s.Record(ctx, event("com.slack.old", now-90_000, "expired"))

	st := s.Stats()
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, 50, st.Capacity)
	assert.InDelta(t, 20.0, st.MeanAgeSeconds, 1e-9)
	assert.InDelta(t, 10.0, st.StdAgeSeconds, 1e-9)
	assert.InDelta(t, 30.0, st.OldestSeconds, 1e-9)
	require.Len(t, st.Apps, 2)
	assert.Equal(t, AppCount{Package: "com.whatsapp", Name: "com.whatsapp", Count: 2}, st.Apps[0])
}

func TestEventValidate(t *testing.T) {
	assert.NoError(t, Event{Package: "com.whatsapp"}.Validate())
	assert.ErrorIs(t, Event{}.Validate(), ErrInvalidEvent)
	assert.ErrorIs(t, Event{Package: "a.b", PostTime: -1}.Validate(), ErrInvalidEvent)
	assert.ErrorIs(t, Event{Package: "not a package"}.Validate(), ErrInvalidEvent)
	nul := "bad\x00text"
	assert.ErrorIs(t, Event{Package: "a.b", Content: &nul}.Validate(), ErrInvalidEvent)
}

type resolverFunc func(string) string

func (f resolverFunc) Resolve(_ context.Context, pkg string) string { return f(pkg) }
