package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPreviewPrefill(t *testing.T) {
	result := BuildPreview(PreviewInput{Participants: []string{"Alpha", " ", "Bravo"}})

	assert.True(t, result.Prefilled)
	assert.Equal(t, "{\n  \"participants\": [\n    {\n      \"id\": 1,\n      \"name\": \"Alpha\"\n    },\n    {\n      \"id\": 2,\n      \"name\": \"Bravo\"\n    }\n  ]\n}", result.BracketData)
	assert.Equal(t, "Teams: 2", result.Summary)
	assert.Equal(t, []string{"Alpha", "Bravo"}, result.Participants)
	assert.Empty(t, result.Error)
	assert.Equal(t, result.BracketData, result.JSON)
}

func TestBuildPreviewUserEdited(t *testing.T) {
	t.Run("keeps the text and echoes it", func(t *testing.T) {
		result := BuildPreview(PreviewInput{
			Participants: []string{"Alpha"},
			BracketData:  `{"stages":[],"matches":[1]}`,
			UserEdited:   true,
		})
		assert.False(t, result.Prefilled)
		assert.Equal(t, `{"stages":[],"matches":[1]}`, result.BracketData)
		assert.Equal(t, "{\n  \"stages\": [],\n  \"matches\": [\n    1\n  ]\n}", result.JSON)
	})

	t.Run("empty text shows the seeding", func(t *testing.T) {
		result := BuildPreview(PreviewInput{Participants: []string{"Alpha", "Bravo"}, BracketData: "  ", UserEdited: true})
		assert.Equal(t, "{\n  \"seeding\": [\n    \"Alpha\",\n    \"Bravo\"\n  ]\n}", result.JSON)
		assert.Equal(t, "Teams: 2", result.Summary)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		result := BuildPreview(PreviewInput{BracketData: "{nope", UserEdited: true})
		assert.Contains(t, result.Error, "Invalid JSON in bracket data: ")
		assert.Empty(t, result.JSON)
		assert.Empty(t, result.Summary)
	})
}

func TestPreviewResolvesParticipantIDs(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.participant(t, "Alpha", 9)
	b := env.participant(t, "Bravo", 0)

	result, err := env.viewer.Preview(ctx, editorAccount, PreviewInput{ParticipantIDs: []int{a.ID, b.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Bravo"}, result.Participants)

	_, err = env.viewer.Preview(ctx, viewerAccount, PreviewInput{})
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}
