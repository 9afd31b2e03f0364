package launcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// ErrEmptyCatalog is returned when a source yields no launchable entries.
var ErrEmptyCatalog = errors.New("catalog has no launchable apps")

// Source produces the installed app list.
type Source interface {
	Load(ctx context.Context) ([]Entry, error)
}

// StaticSource serves a fixed list.
type StaticSource []Entry

// Load returns a copy of the list.
func (s StaticSource) Load(context.Context) ([]Entry, error) {
	out := make([]Entry, len(s))
	copy(out, s)
	return out, nil
}

// catalogFile is the on-disk shape: either a list under "apps" or a single
// entry at the top level.
type catalogFile struct {
	Apps    []Entry  `json:"apps" yaml:"apps" toml:"apps"`
	Package string   `json:"package" yaml:"package" toml:"package"`
	Name    string   `json:"name" yaml:"name" toml:"name"`
	System  bool     `json:"system" yaml:"system" toml:"system"`
	Hidden  bool     `json:"hidden" yaml:"hidden" toml:"hidden"`
	Exec    []string `json:"exec" yaml:"exec" toml:"exec"`
}

// DirSource reads entries from .yaml, .yml, .toml and .json files under a
// directory tree.
type DirSource struct {
	Root string
}

// Load walks Root and parses every catalog file. Unreadable files fail the
// whole load; entries without a package are dropped. Entries come back
// ordered by file path, then by position within the file.
func (d DirSource) Load(ctx context.Context) ([]Entry, error) {
	var (
		mu     sync.Mutex
		byFile = make(map[string][]Entry)
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, d.Root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if de.IsDir() {
			return nil
		}

		found, err := parseFile(path)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return nil
		}
		mu.Lock()
		byFile[path] = found
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", d.Root, err)
	}

	// fastwalk visits files concurrently.
	paths := make([]string, 0, len(byFile))
	for path := range byFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var entries []Entry
	for _, path := range paths {
		entries = append(entries, byFile[path]...)
	}
	return entries, nil
}

func parseFile(path string) ([]Entry, error) {
	var unmarshal func([]byte, interface{}) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		unmarshal = func(b []byte, v interface{}) error { return yaml.Unmarshal(b, v) }
	case ".toml":
		unmarshal = toml.Unmarshal
	case ".json":
		unmarshal = sonic.Unmarshal
	default:
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f catalogFile
	if err := unmarshal(toUTF8(data), &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	found := f.Apps
	if f.Package != "" {
		found = append(found, Entry{Package: f.Package, Name: f.Name, System: f.System, Hidden: f.Hidden, Exec: f.Exec})
	}

	out := found[:0]
	for _, e := range found {
		if e.Package == "" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Catalog is the loaded set of apps, indexed by package.
type Catalog struct {
	mu      sync.RWMutex
	byPkg   map[string]Entry
	ordered []Entry
	onSwap  []func()
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byPkg: make(map[string]Entry)}
}

// Replace swaps in a new entry set, dropping hidden entries and duplicate
// packages (first wins). It returns the launchable entries.
func (c *Catalog) Replace(entries []Entry) []Entry {
	byPkg := make(map[string]Entry, len(entries))
	ordered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Hidden || e.Package == "" {
			continue
		}
		if _, dup := byPkg[e.Package]; dup {
			continue
		}
		byPkg[e.Package] = e
		ordered = append(ordered, e)
	}

	c.mu.Lock()
	c.byPkg = byPkg
	c.ordered = ordered
	hooks := append([]func(){}, c.onSwap...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}

	out := make([]Entry, len(ordered))
	copy(out, ordered)
	return out
}

// OnReplace registers fn to run after every Replace, outside the lock.
func (c *Catalog) OnReplace(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.onSwap = append(c.onSwap, fn)
	c.mu.Unlock()
}

// Label returns the display name of an installed package.
func (c *Catalog) Label(pkg string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byPkg[pkg]
	if !ok || e.Name == "" {
		return "", false
	}
	return e.Name, true
}

// Get returns the entry for pkg.
func (c *Catalog) Get(pkg string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byPkg[pkg]
	return e, ok
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ordered)
}

// toUTF8 transcodes catalog files saved in a legacy single-byte encoding.
// Undetectable input is returned unchanged.
func toUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	name := "windows-1252"
	if res, err := chardet.NewTextDetector().DetectBest(data); err == nil && res != nil {
		name = strings.ToLower(res.Charset)
	}
	enc, _ := charset.Lookup(name)
	if enc == nil {
		return data
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return out
}
