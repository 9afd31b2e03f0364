// Package navigation separates turn-by-turn notifications from the rest and
// derives the banner shown while a route is being followed.
package navigation

import (
	"strings"

	"github.com/GriffinCanCode/glassd/internal/domain/notification"
)

// Kind is the display route of a record.
type Kind int

const (
	General Kind = iota
	Navigation
)

func (k Kind) String() string {
	if k == Navigation {
		return "navigation"
	}
	return "general"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MapsPackage is the mapping app whose notifications are always navigation.
const MapsPackage = "com.google.android.apps.maps"

// Keywords is the French then English vocabulary, in match order.
var Keywords = []string{
	"navigation", "tourner", "tournez", "continuer", "continuez", "sortez",
	"prenez", "rte de", "route", "km", "metres", "arrivée", "destination",
	"tout droit", "demi-tour", "rond-point",
	"turn left", "turn right", "continue", "straight", "exit", "arrived",
	"destination reached", "u-turn", "roundabout",
}

// Input is the subset of a record the classifier looks at.
type Input struct {
	Package string `json:"package"`
	AppName string `json:"app_name"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// InputOf extracts the classifier input from a record.
func InputOf(r notification.Record) Input {
	return Input{
		Package: r.SourcePackage,
		AppName: r.ApplicationName,
		Title:   r.TitleText(),
		Content: r.ContentText(),
	}
}

// Classify reports whether a record is navigation.
func Classify(r notification.Record) Kind {
	return ClassifyInput(InputOf(r))
}

// ClassifyInput classifies raw fields.
func ClassifyInput(in Input) Kind {
	if in.Package == MapsPackage {
		return Navigation
	}
	if strings.Contains(strings.ToLower(in.AppName), "maps") {
		return Navigation
	}
	if MatchKeyword(in.Title, in.Content) != "" {
		return Navigation
	}
	return General
}

// MatchKeyword returns the first vocabulary term found in the lowercased
// "title content" text, or "".
func MatchKeyword(title, content string) string {
	text := strings.ToLower(title + " " + content)
	for _, kw := range Keywords {
		if strings.Contains(text, kw) {
			return kw
		}
	}
	return ""
}

// Split partitions records into navigation and general, keeping order.
func Split(records []notification.Record) (nav, general []notification.Record) {
	for _, r := range records {
		if Classify(r) == Navigation {
			nav = append(nav, r)
		} else {
			general = append(general, r)
		}
	}
	return nav, general
}
