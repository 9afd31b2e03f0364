package notification

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Skip reasons reported to hooks.
const (
	SkipHost    = "host"
	SkipSystem  = "system"
	SkipPattern = "pattern"
)

// SystemPackages are never admitted.
var SystemPackages = []string{"android", "com.android.systemui", "com.android.system"}

// Filter decides which packages are kept out of the store.
type Filter struct {
	host     string
	system   map[string]struct{}
	patterns []string
}

// NewFilter builds a filter for the host package plus extra glob patterns
// (doublestar syntax, with "." treated as an ordinary character).
func NewFilter(host string, patterns []string) (*Filter, error) {
	f := &Filter{host: host, system: make(map[string]struct{}, len(SystemPackages))}
	for _, p := range SystemPackages {
		f.system[p] = struct{}{}
	}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid skip pattern %q", p)
		}
		f.patterns = append(f.patterns, p)
	}
	return f, nil
}

// Skip returns a reason when pkg must not be admitted.
func (f *Filter) Skip(pkg string) (string, bool) {
	if f.host != "" && pkg == f.host {
		return SkipHost, true
	}
	if _, ok := f.system[pkg]; ok {
		return SkipSystem, true
	}
	for _, p := range f.patterns {
		if ok, _ := doublestar.Match(p, pkg); ok {
			return SkipPattern, true
		}
	}
	return "", false
}
