package navigation

import (
	"regexp"
	"strings"

	"github.com/GriffinCanCode/glassd/internal/domain/notification"
)

const (
	fallbackInstruction = "Navigation en cours"
	fallbackDetails     = "🗺️ Navigation active"
)

var (
	etaPattern      = regexp.MustCompile(`(\d+)\s*min`)
	distancePattern = regexp.MustCompile(`(\d+[.,]?\d*)\s*(km|m)\b`)
)

// Instruction returns the text to show on the banner.
func Instruction(r notification.Record) string {
	if c := r.ContentText(); c != "" {
		return c
	}
	if t := r.TitleText(); t != "" {
		return t
	}
	return fallbackInstruction
}

// Details extracts the remaining time and distance.
func Details(r notification.Record) string {
	text := r.TitleText() + " " + r.ContentText()

	var parts []string
	if m := etaPattern.FindString(text); m != "" {
		parts = append(parts, "⏱️ "+m)
	}
	if m := distancePattern.FindString(text); m != "" {
		parts = append(parts, "📍 "+m)
	}
	if len(parts) == 0 {
		return fallbackDetails
	}
	return strings.Join(parts, " • ")
}

// Direction glyphs.
const (
	Right    = "➡️"
	Left     = "⬅️"
	Straight = "⬆️"
	UTurn    = "↩️"
	Exit     = "🔄"
	Arrival  = "🏁"
	Generic  = "🗺️"
)

type family struct {
	glyph string
	terms []string
}

// Families are checked in order; French first, so "tournez à droite puis
// continuez" is Right.
var families = []family{
	{Right, []string{"tournez à droite", "tourner à droite", "à droite", "droite"}},
	{Left, []string{"tournez à gauche", "tourner à gauche", "à gauche", "gauche"}},
	{Straight, []string{"tout droit", "continuer", "continuez"}},
	{UTurn, []string{"demi-tour", "u-turn"}},
	{Exit, []string{"sortez", "prenez la sortie", "rond-point"}},
	{Arrival, []string{"arrivée", "destination", "arrivé"}},
	{Right, []string{"turn right"}},
	{Left, []string{"turn left"}},
	{Straight, []string{"continue straight"}},
	{Exit, []string{"roundabout", "take exit"}},
	{Arrival, []string{"arrived"}},
}

// DirectionOf picks a glyph for an instruction.
func DirectionOf(text string) string {
	text = strings.ToLower(text)
	for _, f := range families {
		for _, term := range f.terms {
			if strings.Contains(text, term) {
				return f.glyph
			}
		}
	}
	return Generic
}
