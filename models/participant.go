package models

import "time"

// Participant is a player or team that can be seeded into a tournament.
type Participant struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	TournamentID *int      `json:"tournament_id,omitempty" db:"tournament_id"`
	Weight       int       `json:"weight" db:"weight"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	ChangedAt    time.Time `json:"changed_at" db:"changed_at"`
}

// Label returns the entity label.
func (p Participant) Label() string {
	return p.Name
}

// MaxLabelLength is the storage limit for tournament and participant names.
const MaxLabelLength = 255
