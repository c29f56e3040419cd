package models

import "time"

// Tournament представляет турнир вместе с сырым JSON сетки.
// BracketData хранится как есть: его интерпретирует только браузерная библиотека.
type Tournament struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Description    *string   `json:"description,omitempty" db:"description"`
	BracketData    string    `json:"bracket_data" db:"bracket_data"`
	Active         bool      `json:"active" db:"active"`
	ParticipantIDs []int     `json:"participant_ids" db:"-"`
	SnapshotKey    *string   `json:"-" db:"snapshot_key"`
	SnapshotURL    *string   `json:"snapshot_url,omitempty" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	ChangedAt      time.Time `json:"changed_at" db:"changed_at"`

	// Участники в порядке посева, заполняются сервисом.
	Participants []Participant `json:"participants,omitempty" db:"-"`
}

// Label returns the entity label used in links and messages.
func (t Tournament) Label() string {
	return t.Name
}

// ParticipantNames returns the names of the loaded participants in their
// current order, skipping empty names.
func (t Tournament) ParticipantNames() []string {
	names := make([]string, 0, len(t.Participants))
	for _, p := range t.Participants {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return names
}
