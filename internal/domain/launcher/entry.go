package launcher

import (
	"math"
	"sort"
	"strings"
)

// Entry is one launchable app.
type Entry struct {
	Package string   `json:"package" yaml:"package" toml:"package"`
	Name    string   `json:"name" yaml:"name" toml:"name"`
	System  bool     `json:"system,omitempty" yaml:"system" toml:"system"`
	Hidden  bool     `json:"hidden,omitempty" yaml:"hidden" toml:"hidden"`
	Exec    []string `json:"exec,omitempty" yaml:"exec" toml:"exec"`
}

// DisplayName returns Name, or the package when Name is empty.
func (e Entry) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Package
}

// DefaultFavorites are pinned to the top of the menu in this order.
func DefaultFavorites() []string {
	return []string{
		"com.google.android.gm",
		"com.whatsapp",
		"com.spotify.music",
		"com.google.android.youtube",
		"com.google.android.apps.photos",
		"com.android.camera2",
		"com.google.android.calculator",
		"com.android.settings",
		"com.google.android.apps.maps",
		"com.google.android.chrome",
	}
}

// Sort orders entries in place: favorites in listed order, then the rest
// by display name ignoring case.
func Sort(entries []Entry, favorites []string) {
	rank := make(map[string]int, len(favorites))
	for i, pkg := range favorites {
		if _, dup := rank[pkg]; !dup {
			rank[pkg] = i
		}
	}
	priority := func(pkg string) int {
		if r, ok := rank[pkg]; ok {
			return r
		}
		return math.MaxInt
	}

	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := priority(entries[i].Package), priority(entries[j].Package)
		if pi != pj {
			return pi < pj
		}
		ni, nj := strings.ToLower(entries[i].DisplayName()), strings.ToLower(entries[j].DisplayName())
		if ni != nj {
			return ni < nj
		}
		return entries[i].Package < entries[j].Package
	})
}
