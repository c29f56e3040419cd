package services

import (
	"sort"

	"github.com/Dosada05/bracket-manager/models"
)

// OrderParticipants resolves a tournament's ordered participant references
// against the loaded participants and sorts them by seeding weight.
// References to participants that were not loaded are skipped; equal weights
// keep their reference order.
func OrderParticipants(refs []int, loaded []models.Participant) []models.Participant {
	byID := make(map[int]models.Participant, len(loaded))
	for _, p := range loaded {
		byID[p.ID] = p
	}
	ordered := make([]models.Participant, 0, len(refs))
	for _, id := range refs {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	SortBySeeding(ordered)
	return ordered
}

// SortBySeeding sorts participants by ascending weight, in place.
func SortBySeeding(participants []models.Participant) {
	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].Weight < participants[j].Weight
	})
}
