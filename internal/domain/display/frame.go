package display

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/GriffinCanCode/glassd/internal/domain/input"
	"github.com/GriffinCanCode/glassd/internal/domain/launcher"
	"github.com/GriffinCanCode/glassd/internal/domain/navigation"
	"github.com/GriffinCanCode/glassd/internal/domain/notification"
	"github.com/GriffinCanCode/glassd/internal/shared/id"
)

const (
	untitled  = "Nouvelle notification"
	menuTitle = "🎮 Menu Applications"
)

// Frame is everything the glasses draw at one instant.
type Frame struct {
	ID            id.FrameID             `json:"id"`
	Clock         string                 `json:"clock"`
	Date          string                 `json:"date"`
	Battery       string                 `json:"battery"`
	Banner        navigation.BannerState `json:"banner"`
	Notifications []Line                 `json:"notifications"`
	Menu          MenuView               `json:"menu"`
	RenderedAt    time.Time              `json:"rendered_at"`
}

// Line is one entry of the general notification list.
type Line struct {
	ID      string `json:"id"`
	App     string `json:"app"`
	Package string `json:"package"`
	Time    string `json:"time"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// MenuView is the launcher overlay.
type MenuView struct {
	Visible      bool       `json:"visible"`
	Title        string     `json:"title"`
	Instructions string     `json:"instructions"`
	Selected     int        `json:"selected"`
	Total        int        `json:"total"`
	Items        []MenuItem `json:"items"`
}

// MenuItem is one visible launcher row.
type MenuItem struct {
	Name     string `json:"name"`
	Package  string `json:"package"`
	Selected bool   `json:"selected"`
}

// Battery is the phone battery state. Level is -1 when unknown.
type Battery struct {
	Level    int  `json:"level"`
	Charging bool `json:"charging"`
}

// UnknownBattery is the state before the first report.
var UnknownBattery = Battery{Level: -1}

// String renders the status bar text.
func (b Battery) String() string {
	if b.Level < 0 || b.Level > 100 {
		return "🔋 -%"
	}
	icon := "🔋"
	if b.Charging {
		icon = "⚡"
	}
	return fmt.Sprintf("%s %d%%", icon, b.Level)
}

var frenchMonths = [...]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// FormatDate renders "02 Jan 2006", with French month abbreviations for
// the fr locale.
func FormatDate(t time.Time, locale string) string {
	if strings.HasPrefix(strings.ToLower(locale), "fr") {
		return fmt.Sprintf("%02d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
	}
	return t.Format("02 Jan 2006")
}

// FormatClock renders "15:04".
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// Lines converts general records to list lines, newest first.
func Lines(records []notification.Record, loc *time.Location) []Line {
	sorted := make([]notification.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp > sorted[j].Timestamp })

	lines := make([]Line, 0, len(sorted))
	for _, r := range sorted {
		l := Line{
			ID:      r.ID.String(),
			App:     r.ApplicationName,
			Package: r.SourcePackage,
			Time:    FormatClock(r.Time().In(loc)),
			Title:   r.TitleText(),
			Content: r.ContentText(),
		}
		if l.Title == "" && l.Content == "" {
			l.Title = untitled
		}
		lines = append(lines, l)
	}
	return lines
}

// Menu converts a launcher snapshot and gamepad status into the overlay.
func Menu(snap launcher.Snapshot, pad input.Status) MenuView {
	title := menuTitle
	if pad.Connected && pad.Name != "" {
		title = fmt.Sprintf("%s (%s)", menuTitle, pad.Name)
	}

	view := MenuView{
		Visible:      snap.Visible,
		Title:        title,
		Instructions: pad.Instructions,
		Selected:     snap.Selected,
		Total:        snap.Total,
		Items:        make([]MenuItem, 0, len(snap.Window)),
	}
	for _, w := range snap.Window {
		view.Items = append(view.Items, MenuItem{
			Name:     w.Entry.DisplayName(),
			Package:  w.Entry.Package,
			Selected: w.Selected,
		})
	}
	return view
}
