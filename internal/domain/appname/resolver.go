// Package appname turns reverse-DNS package identifiers into display names.
//
// Resolution runs an ordered list of strategies; the first that answers wins
// and the heuristic at the end of every chain always answers.
package appname

import (
	"context"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Strategy resolves a package to a display name, reporting whether it could.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, pkg string) (string, bool)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc struct {
	Label string
	Fn    func(ctx context.Context, pkg string) (string, bool)
}

func (s StrategyFunc) Name() string { return s.Label }

func (s StrategyFunc) Resolve(ctx context.Context, pkg string) (string, bool) {
	return s.Fn(ctx, pkg)
}

// Chain tries strategies in order.
type Chain struct {
	strategies []Strategy
	cache      *Cache
	log        *zap.Logger
}

// NewChain builds a chain from the given strategies followed by Heuristic.
// When a Cache appears in the list, names found by later strategies are
// written back to it. Heuristic guesses are never cached.
func NewChain(log *zap.Logger, strategies ...Strategy) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Chain{log: log.Named("appname")}
	for _, s := range strategies {
		if s == nil {
			continue
		}
		if cache, ok := s.(*Cache); ok && c.cache == nil {
			c.cache = cache
		}
		c.strategies = append(c.strategies, s)
	}
	c.strategies = append(c.strategies, Heuristic{})
	return c
}

// Resolve returns the first name any strategy yields.
func (c *Chain) Resolve(ctx context.Context, pkg string) string {
	for _, s := range c.strategies {
		name, ok := s.Resolve(ctx, pkg)
		if !ok || name == "" {
			c.log.Debug("strategy missed", zap.String("strategy", s.Name()), zap.String("package", pkg))
			continue
		}
		if c.cache != nil && cacheable(s, c.cache) {
			c.cache.Put(pkg, name)
		}
		return name
	}
	// Heuristic always answers; reached only for an empty package.
	return pkg
}

func cacheable(s Strategy, cache *Cache) bool {
	switch v := s.(type) {
	case *Cache:
		return v != cache
	case Heuristic:
		return false
	}
	return true
}

// Strategies lists the chain's strategy names in order.
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Cache memoizes names per package.
type Cache struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{names: make(map[string]string)}
}

func (c *Cache) Name() string { return "cache" }

func (c *Cache) Resolve(_ context.Context, pkg string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[pkg]
	return name, ok
}

// Put stores a name.
func (c *Cache) Put(pkg, name string) {
	c.mu.Lock()
	c.names[pkg] = name
	c.mu.Unlock()
}

// Forget drops every cached name. Call it whenever a directory strategy
// behind the cache changes.
func (c *Cache) Forget() {
	c.mu.Lock()
	c.names = make(map[string]string)
	c.mu.Unlock()
}

// Len returns the number of cached names.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Directory is anything that knows installed apps by package.
type Directory interface {
	Label(pkg string) (string, bool)
}

type directory struct {
	d Directory
}

// FromDirectory wraps a Directory as a strategy.
func FromDirectory(d Directory) Strategy {
	return directory{d: d}
}

func (s directory) Name() string { return "catalog" }

func (s directory) Resolve(_ context.Context, pkg string) (string, bool) {
	return s.d.Label(pkg)
}

// Static resolves from a fixed table.
type Static map[string]string

func (s Static) Name() string { return "static" }

func (s Static) Resolve(_ context.Context, pkg string) (string, bool) {
	name, ok := s[pkg]
	return name, ok
}

// WellKnown returns a fresh copy of the built-in table of common apps.
func WellKnown() Static {
	return Static{
		"com.google.android.gm":             "Gmail",
		"com.facebook.orca":                 "Messenger",
		"com.whatsapp":                      "WhatsApp",
		"com.snapchat.android":              "Snapchat",
		"com.instagram.android":             "Instagram",
		"com.twitter.android":               "Twitter",
		"com.google.android.apps.maps":      "Google Maps",
		"com.spotify.music":                 "Spotify",
		"com.discord":                       "Discord",
		"com.telegram.messenger":            "Telegram",
		"com.google.android.youtube":        "YouTube",
		"com.netflix.mediaclient":           "Netflix",
		"com.amazon.mShop.android.shopping": "Amazon",
		"com.paypal.android.p2pmobile":      "PayPal",
		"com.uber.app":                      "Uber",
		"com.zhiliaoapp.musically":          "TikTok",
		"com.microsoft.teams":               "Teams",
		"com.slack":                         "Slack",
		"com.google.android.apps.messaging": "Messages",
		"com.android.chrome":                "Chrome",
	}
}

// Heuristic derives a name from the package segments.
type Heuristic struct{}

func (Heuristic) Name() string { return "heuristic" }

func (Heuristic) Resolve(_ context.Context, pkg string) (string, bool) {
	return Guess(pkg), pkg != ""
}

// Guess capitalises the last segment of a package with three or more
// segments, the second of a two-segment package, and otherwise returns pkg.
func Guess(pkg string) string {
	parts := strings.Split(pkg, ".")
	switch {
	case len(parts) >= 3:
		return capitalize(parts[len(parts)-1])
	case len(parts) == 2:
		return capitalize(parts[1])
	default:
		return pkg
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
