package navigation

import (
	"testing"
	"time"

	"github.com/GriffinCanCode/glassd/internal/domain/notification"
	"github.com/stretchr/testify/assert"
)

func TestInstruction(t *testing.T) {
	assert.Equal(t, "Tournez à gauche", Instruction(notification.Record{Title: str("12 min"), Content: str("Tournez à gauche")}))
	assert.Equal(t, "12 min", Instruction(notification.Record{Title: str("12 min"), Content: str("")}))
	assert.Equal(t, "Navigation en cours", Instruction(notification.Record{}))
}

func TestDetails(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		want    string
	}{
		{name: "time and distance", title: "4,5 km", content: "Tournez à droite, 12 min", want: "⏱️ 12 min • 📍 4,5 km"},
		{name: "distance only", content: "Dans 300 m, tournez à gauche", want: "📍 300 m"},
		{name: "time only", title: "Arrivée dans 7min", want: "⏱️ 7min"},
		{name: "nothing", content: "Continuez tout droit", want: "🗺️ Navigation active"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := notification.Record{Title: str(tt.title), Content: str(tt.content)}
			assert.Equal(t, tt.want, Details(r))
		})
	}
}

func TestDirectionOf(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Tournez à droite sur Rue de Rivoli", Right},
		{"Serrez à gauche", Left},
		{"Continuez tout droit", Straight},
		{"Faites demi-tour", UTurn},
		{"Au rond-point, prenez la 2e sortie", Exit},
		{"Vous êtes arrivé", Arrival},
		{"Turn right onto Main St", Right},
		{"Turn left", Left},
		{"Continue straight for 2 miles", Straight},
		{"At the roundabout, take exit 3", Exit},
		{"You have arrived", Arrival},
		{"Recalculating", Generic},
		// French families are checked first: "droite" beats "demi-tour".
		{"Demi-tour puis à droite", Right},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DirectionOf(tt.text))
		})
	}
}

func TestBannerLifecycle(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	b := NewBanner(0)

	assert.False(t, b.Update(nil, start).Active)

	nav := []notification.Record{
		{ApplicationName: "Google Maps", Content: str("Tournez à droite"), Title: str("2 min (800 m)"), Timestamp: 1},
		{ApplicationName: "Google Maps", Content: str("Tournez à gauche"), Title: str("3 min"), Timestamp: 2},
	}
	state := b.Update(nav, start)
	assert.True(t, state.Active)
	assert.Equal(t, "Tournez à droite", state.Instruction, "oldest live record drives the banner")
	assert.Equal(t, Right, state.Direction)
	assert.Equal(t, "⏱️ 2 min • 📍 800 m", state.Details)
	assert.False(t, state.HasIcon)

	// Kept while idle under the timeout.
	assert.True(t, b.Update(nil, start.Add(DefaultTimeout)).Active)

	// Cleared after the timeout.
	assert.False(t, b.Update(nil, start.Add(DefaultTimeout+time.Second)).Active)
	assert.Equal(t, BannerState{}, b.Snapshot())
}
