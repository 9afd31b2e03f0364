package launcher

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// State is the menu visibility.
type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// Listener observes menu changes. Calls happen without the menu lock held,
// so listeners may call back into the menu.
type Listener interface {
	OnSelectionChanged(index, total int)
	OnLaunched(e Entry)
	OnClosed()
}

// ListenerFuncs adapts optional funcs to Listener.
type ListenerFuncs struct {
	SelectionChanged func(index, total int)
	Launched         func(e Entry)
	Closed           func()
}

func (l ListenerFuncs) OnSelectionChanged(index, total int) {
	if l.SelectionChanged != nil {
		l.SelectionChanged(index, total)
	}
}

func (l ListenerFuncs) OnLaunched(e Entry) {
	if l.Launched != nil {
		l.Launched(e)
	}
}

func (l ListenerFuncs) OnClosed() {
	if l.Closed != nil {
		l.Closed()
	}
}

// WindowItem is an entry in the visible window.
type WindowItem struct {
	Entry    Entry `json:"entry"`
	Selected bool  `json:"selected"`
}

// Snapshot is a consistent view of the menu.
type Snapshot struct {
	State    State        `json:"-"`
	Visible  bool         `json:"visible"`
	Selected int          `json:"selected"`
	Total    int          `json:"total"`
	Loading  bool         `json:"loading"`
	Window   []WindowItem `json:"window"`
}

// MenuOptions configure a Menu.
type MenuOptions struct {
	Source    Source
	Catalog   *Catalog
	Launcher  Launcher
	Favorites []string
	Window    int
	// Context bounds loads triggered by Show.
	Context context.Context
	Logger  *zap.Logger
}

// Menu is the launcher overlay state machine.
type Menu struct {
	opts MenuOptions
	log  *zap.Logger

	mu        sync.Mutex
	items     []Entry
	selected  int
	state     State
	loading   bool
	listeners []Listener
}

// NewMenu creates a hidden, empty menu.
func NewMenu(opts MenuOptions) *Menu {
	if opts.Source == nil {
		opts.Source = StaticSource(nil)
	}
	if opts.Catalog == nil {
		opts.Catalog = NewCatalog()
	}
	if opts.Launcher == nil {
		opts.Launcher = ExecLauncher{Logger: opts.Logger}
	}
	if opts.Favorites == nil {
		opts.Favorites = DefaultFavorites()
	}
	if opts.Window <= 0 {
		opts.Window = 5
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Menu{opts: opts, log: opts.Logger.Named("launcher")}
}

// AddListener registers l.
func (m *Menu) AddListener(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

func (m *Menu) snapshotListeners() []Listener {
	out := make([]Listener, len(m.listeners))
	copy(out, m.listeners)
	return out
}

// Load fetches, filters and sorts the entry list and installs it. The
// selection resets to the first entry.
func (m *Menu) Load(ctx context.Context) error {
	entries, err := m.opts.Source.Load(ctx)
	if err == nil {
		entries = m.opts.Catalog.Replace(entries)
		if len(entries) == 0 {
			err = ErrEmptyCatalog
		}
	}
	if err != nil {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
		m.log.Error("failed to load apps", zap.Error(err))
		return err
	}

	Sort(entries, m.opts.Favorites)

	m.mu.Lock()
	m.items = entries
	m.selected = 0
	m.loading = false
	visible := m.state == Visible
	total := len(m.items)
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	m.log.Info("apps loaded", zap.Int("count", total))
	if visible {
		for _, l := range listeners {
			l.OnSelectionChanged(0, total)
		}
	}
	return nil
}

// Show makes the menu visible with the first entry selected, starting a
// background load when nothing is loaded yet.
func (m *Menu) Show() {
	m.mu.Lock()
	startLoad := len(m.items) == 0 && !m.loading
	if startLoad {
		m.loading = true
	}
	m.state = Visible
	m.selected = 0
	total := len(m.items)
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	m.log.Debug("menu shown", zap.Int("apps", total))
	for _, l := range listeners {
		l.OnSelectionChanged(0, total)
	}

	if startLoad {
		go func() { _ = m.Load(m.opts.Context) }()
	}
}

// Hide closes the menu. The selection is kept until the next Show.
func (m *Menu) Hide() {
	m.mu.Lock()
	m.state = Hidden
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	m.log.Debug("menu hidden")
	for _, l := range listeners {
		l.OnClosed()
	}
}

// NavigateUp moves the selection up, wrapping to the last entry.
func (m *Menu) NavigateUp() {
	m.move(-1)
}

// NavigateDown moves the selection down, wrapping to the first entry.
func (m *Menu) NavigateDown() {
	m.move(1)
}

func (m *Menu) move(delta int) {
	m.mu.Lock()
	if m.state != Visible || len(m.items) == 0 {
		m.mu.Unlock()
		return
	}
	n := len(m.items)
	m.selected = ((m.selected+delta)%n + n) % n
	index := m.selected
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	for _, l := range listeners {
		l.OnSelectionChanged(index, n)
	}
}

// SelectCurrentItem launches the selected entry and hides the menu. It is
// a no-op while hidden or empty.
func (m *Menu) SelectCurrentItem(ctx context.Context) {
	m.mu.Lock()
	if m.state != Visible || len(m.items) == 0 {
		m.mu.Unlock()
		return
	}
	entry := m.items[m.selected]
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	if err := m.opts.Launcher.Launch(ctx, entry); err != nil {
		level := zap.ErrorLevel
		if errors.Is(err, ErrNotLaunchable) {
			level = zap.WarnLevel
		}
		m.log.Log(level, "failed to launch app", zap.String("package", entry.Package), zap.Error(err))
	} else {
		m.log.Info("app launched", zap.String("package", entry.Package), zap.String("name", entry.DisplayName()))
		for _, l := range listeners {
			l.OnLaunched(entry)
		}
	}

	m.Hide()
}

// Current returns the selected entry while visible.
func (m *Menu) Current() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Visible || len(m.items) == 0 {
		return Entry{}, false
	}
	return m.items[m.selected], true
}

// VisibleWindow returns up to n entries around the selection, clamped to
// the list. It is empty while hidden.
func (m *Menu) VisibleWindow(n int) []WindowItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.windowLocked(n)
}

func (m *Menu) windowLocked(n int) []WindowItem {
	if m.state != Visible || len(m.items) == 0 || n <= 0 {
		return nil
	}
	start := m.selected - n/2
	if start < 0 {
		start = 0
	}
	end := start + n
	if end > len(m.items) {
		end = len(m.items)
	}

	out := make([]WindowItem, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, WindowItem{Entry: m.items[i], Selected: i == m.selected})
	}
	return out
}

// Snapshot returns the state with the configured window.
func (m *Menu) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:    m.state,
		Visible:  m.state == Visible,
		Selected: m.selected,
		Total:    len(m.items),
		Loading:  m.loading,
		Window:   m.windowLocked(m.opts.Window),
	}
}

// Visible reports whether the menu is shown.
func (m *Menu) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Visible
}

// Selected returns the selected index.
func (m *Menu) Selected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// Len returns the number of loaded entries.
func (m *Menu) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Items returns a copy of the ordered entries.
func (m *Menu) Items() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.items))
	copy(out, m.items)
	return out
}
