package navigation

import (
	"testing"

	"github.com/GriffinCanCode/glassd/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		record notification.Record
		want   Kind
	}{
		{
			name:   "french turn instruction",
			record: notification.Record{SourcePackage: "fr.example.gps", Content: str("Tournez à droite dans 200 m")},
			want:   Navigation,
		},
		{
			name:   "chat message",
			record: notification.Record{SourcePackage: "com.whatsapp", ApplicationName: "WhatsApp", Content: str("Hello")},
			want:   General,
		},
		{
			name:   "maps package regardless of text",
			record: notification.Record{SourcePackage: MapsPackage},
			want:   Navigation,
		},
		{
			name:   "app name contains maps",
			record: notification.Record{SourcePackage: "net.osmand", ApplicationName: "OsmAnd MAPS", Title: str("Bonjour")},
			want:   Navigation,
		},
		{
			name:   "english keyword in title",
			record: notification.Record{SourcePackage: "com.waze", ApplicationName: "Waze", Title: str("Turn left onto Main St")},
			want:   Navigation,
		},
		{
			name:   "uppercase text matches",
			record: notification.Record{SourcePackage: "a.b.c", Title: str("DESTINATION"), Content: nil},
			want:   Navigation,
		},
		{
			name:   "km unit alone is navigation",
			record: notification.Record{SourcePackage: "com.strava", Content: str("You ran 5 km")},
			want:   Navigation,
		},
		{
			name:   "empty record",
			record: notification.Record{SourcePackage: "com.example.empty"},
			want:   General,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.record))
		})
	}
}

func TestMatchKeywordOrder(t *testing.T) {
	// "navigation" precedes "route" and "turn left" in the vocabulary.
	assert.Equal(t, "navigation", MatchKeyword("Navigation", "turn left on route 9"))
	assert.Equal(t, "tournez", MatchKeyword("", "Tournez à gauche"))
	assert.Equal(t, "continue", MatchKeyword("", "continue straight"))
	assert.Equal(t, "", MatchKeyword("Lunch?", "See you at noon"))
}

func TestKeywordsUnchanged(t *testing.T) {
	require.Len(t, Keywords, 25)
	assert.Equal(t, "navigation", Keywords[0])
	assert.Equal(t, "rond-point", Keywords[15])
	assert.Equal(t, "roundabout", Keywords[24])
}

func TestSplitPreservesOrder(t *testing.T) {
	records := []notification.Record{
		{SourcePackage: "com.whatsapp", Content: str("one")},
		{SourcePackage: MapsPackage, Content: str("Continuez sur A6")},
		{SourcePackage: "com.slack", Content: str("two")},
		{SourcePackage: MapsPackage, Content: str("Sortez")},
	}

	nav, general := Split(records)
	require.Len(t, nav, 2)
	require.Len(t, general, 2)
	assert.Equal(t, "Continuez sur A6", nav[0].ContentText())
	assert.Equal(t, "one", general[0].ContentText())
	assert.Equal(t, "two", general[1].ContentText())
}

func TestKindText(t *testing.T) {
	b, err := Navigation.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "navigation", string(b))
	assert.Equal(t, "general", General.String())
}
