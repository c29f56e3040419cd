package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/bracket-manager/models"
)

func names(participants []models.Participant) []string {
	out := make([]string, 0, len(participants))
	for _, p := range participants {
		out = append(out, p.Name)
	}
	return out
}

func TestOrderParticipants(t *testing.T) {
	loaded := []models.Participant{
		{ID: 1, Name: "A", Weight: 2},
		{ID: 2, Name: "B", Weight: 0},
		{ID: 3, Name: "C", Weight: 1},
	}

	t.Run("sorts by weight", func(t *testing.T) {
		got := OrderParticipants([]int{1, 2, 3}, loaded)
		assert.Equal(t, []string{"B", "C", "A"}, names(got))
	})

	t.Run("equal weights keep reference order", func(t *testing.T) {
		equal := []models.Participant{
			{ID: 7, Name: "X"}, {ID: 8, Name: "Y"}, {ID: 9, Name: "Z"},
		}
		assert.Equal(t, []string{"Z", "X", "Y"}, names(OrderParticipants([]int{9, 7, 8}, equal)))
		assert.Equal(t, []string{"Y", "Z", "X"}, names(OrderParticipants([]int{8, 9, 7}, equal)))
	})

	t.Run("missing references are skipped", func(t *testing.T) {
		got := OrderParticipants([]int{42, 3, 1}, loaded)
		assert.Equal(t, []string{"C", "A"}, names(got))
	})

	t.Run("duplicates are kept", func(t *testing.T) {
		got := OrderParticipants([]int{3, 3}, loaded)
		assert.Equal(t, []string{"C", "C"}, names(got))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, OrderParticipants(nil, loaded))
	})
}

func TestParticipantNamesSkipEmpty(t *testing.T) {
	tournament := models.Tournament{Participants: []models.Participant{
		{ID: 1, Name: "Alpha"}, {ID: 2, Name: ""}, {ID: 3, Name: "Gamma"},
	}}
	assert.Equal(t, []string{"Alpha", "Gamma"}, tournament.ParticipantNames())
}
