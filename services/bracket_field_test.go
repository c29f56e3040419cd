package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-manager/models"
)

func TestSanitizeBracketID(t *testing.T) {
	assert.Equal(t, "12", SanitizeBracketID("12"))
	assert.Equal(t, "bracket_65f1a-123", SanitizeBracketID("bracket_65f1a.123"))
	assert.Equal(t, "a-b-c-", SanitizeBracketID("a b/c!"))
}

func TestBracketFieldRenderEntity(t *testing.T) {
	tournament := &models.Tournament{
		ID:          7,
		Name:        "Spring Cup",
		BracketData: `{"stages":[{"id":0}]}`,
		Participants: []models.Participant{
			{ID: 3, Name: "Bravo"}, {ID: 1, Name: "Alpha"},
		},
	}
	field := NewBracketField("tournament_brackets", BracketFieldOptions{})

	build := field.Render(ViewRow{Entity: tournament})

	assert.Equal(t, "7", build.BracketID)
	assert.Equal(t, "brackets-viewer-7", build.ElementID)
	assert.Equal(t, "tournament_brackets", build.ViewID)
	assert.Equal(t, []string{"brackets-viewer", "js-brackets-viewer"}, build.Classes)
	assert.Equal(t, "Spring Cup", build.Name)
	assert.Equal(t, `Loading bracket for <em class="placeholder">Spring Cup</em>…`, build.FallbackHTML)
	assert.Equal(t, LibraryViewsBracketViewer, build.Library)

	data := build.Settings.Data
	assert.Equal(t, []any{map[string]any{"id": float64(0)}}, data["stages"])
	assert.Equal(t, []any{}, data["matches"])
	assert.Equal(t, []any{}, data["matchGames"])
	assert.Equal(t, []map[string]any{
		{"id": 1, "name": "Bravo"},
		{"id": 2, "name": "Alpha"},
	}, data["participants"])
}

func TestBracketFieldKeepsExistingParticipants(t *testing.T) {
	tournament := &models.Tournament{
		ID:           1,
		Name:         "Cup",
		BracketData:  `{"participants":[{"id":0,"name":"From JSON"}]}`,
		Participants: []models.Participant{{ID: 1, Name: "Entity"}},
	}
	build := NewBracketField("v", BracketFieldOptions{}).Render(ViewRow{Entity: tournament})
	assert.Equal(t, []any{map[string]any{"id": float64(0), "name": "From JSON"}}, build.Settings.Data["participants"])
}

func TestBracketFieldInvalidJSON(t *testing.T) {
	tournament := &models.Tournament{ID: 2, Name: "Cup", BracketData: "{broken"}
	build := NewBracketField("v", BracketFieldOptions{}).Render(ViewRow{Entity: tournament})

	assert.Equal(t, map[string]any{
		"stages":     []any{},
		"matches":    []any{},
		"matchGames": []any{},
	}, build.Settings.Data)
}

func TestBracketFieldNullCollections(t *testing.T) {
	tournament := &models.Tournament{
		ID:          3,
		Name:        "Cup",
		BracketData: `{"stages":null,"matches":null,"matchGames":[{"id":1}]}`,
	}
	build := NewBracketField("v", BracketFieldOptions{}).Render(ViewRow{Entity: tournament})

	data := build.Settings.Data
	assert.Equal(t, []any{}, data["stages"])
	assert.Equal(t, []any{}, data["matches"])
	assert.Equal(t, []any{map[string]any{"id": float64(1)}}, data["matchGames"])
}

func TestBracketFieldNonObjectJSON(t *testing.T) {
	tournament := &models.Tournament{ID: 2, Name: "Cup", BracketData: "[1,2,3]"}
	build := NewBracketField("v", BracketFieldOptions{}).Render(ViewRow{Entity: tournament})
	assert.Len(t, build.Settings.Data, 3)
}

func TestBracketFieldWithoutEntity(t *testing.T) {
	field := NewBracketField("v", BracketFieldOptions{})
	field.newID = func() string { return "bracket_abc.42" }

	build := field.Render(ViewRow{
		Fields: map[string]string{
			"field_tournament_participants": "Alpha\n\n  Bravo  \n",
		},
		Values: map[string]string{
			"field_bracket_data": `{"matches":[]}`,
		},
	})

	assert.Equal(t, "bracket_abc-42", build.BracketID)
	assert.Equal(t, "brackets-viewer-bracket_abc-42", build.ElementID)
	assert.Equal(t, "Tournament", build.Name)
	assert.Equal(t, []map[string]any{
		{"id": 1, "name": "Alpha"},
		{"id": 2, "name": "Bravo"},
	}, build.Settings.Data["participants"])
}

func TestBracketFieldUniqueIDs(t *testing.T) {
	field := NewBracketField("v", BracketFieldOptions{})
	first := field.Render(ViewRow{})
	second := field.Render(ViewRow{})
	assert.NotEqual(t, first.BracketID, second.BracketID)
	assert.Regexp(t, `^bracket_[a-zA-Z0-9_-]+$`, first.BracketID)
}

func TestBracketFieldValueOrder(t *testing.T) {
	tournament := &models.Tournament{ID: 5, Name: "Entity name", BracketData: `{"stages":[]}`}
	field := NewBracketField("v", BracketFieldOptions{NameField: "name", BracketDataField: "bracket_data"})

	t.Run("rendered field wins", func(t *testing.T) {
		build := field.Render(ViewRow{
			Entity: tournament,
			Fields: map[string]string{"name": "Rendered"},
			Values: map[string]string{"name": "Raw"},
		})
		assert.Equal(t, "Rendered", build.Name)
	})

	t.Run("raw value next", func(t *testing.T) {
		build := field.Render(ViewRow{Entity: tournament, Values: map[string]string{"name": "Raw"}})
		assert.Equal(t, "Raw", build.Name)
	})

	t.Run("empty rendered field still wins", func(t *testing.T) {
		build := field.Render(ViewRow{
			Entity: tournament,
			Fields: map[string]string{"name": ""},
			Values: map[string]string{"name": "Raw"},
		})
		assert.Equal(t, "", build.Name)
	})

	t.Run("empty raw value wins over entity", func(t *testing.T) {
		build := field.Render(ViewRow{Entity: tournament, Values: map[string]string{"name": ""}})
		assert.Equal(t, "", build.Name)
	})

	t.Run("entity field last", func(t *testing.T) {
		build := field.Render(ViewRow{Entity: tournament})
		assert.Equal(t, "Entity name", build.Name)
		assert.Equal(t, []any{}, build.Settings.Data["stages"])
	})

	t.Run("name is escaped in fallback", func(t *testing.T) {
		build := field.Render(ViewRow{Entity: tournament, Fields: map[string]string{"name": "<b>x</b>"}})
		assert.Equal(t, `Loading bracket for <em class="placeholder">&lt;b&gt;x&lt;/b&gt;</em>…`, build.FallbackHTML)
	})
}

func TestDefaultBracketFieldOptions(t *testing.T) {
	opts := DefaultBracketFieldOptions()
	require.Equal(t, "title", opts.NameField)
	assert.Equal(t, "field_tournament_participants", opts.ParticipantsField)
	assert.Equal(t, "field_bracket_data", opts.BracketDataField)

	partial := BracketFieldOptions{NameField: "name"}.withDefaults()
	assert.Equal(t, "name", partial.NameField)
	assert.Equal(t, "field_bracket_data", partial.BracketDataField)
}
