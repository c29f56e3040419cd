package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Dosada05/bracket-manager/models"
)

// PreviewInput is the state of the tournament form at the time of a preview.
// Names in Participants are used when ParticipantIDs is empty.
type PreviewInput struct {
	Participants   []string `json:"participants"`
	ParticipantIDs []int    `json:"participant_ids"`
	BracketData    string   `json:"bracket_data"`
	UserEdited     bool     `json:"user_edited"`
}

type PreviewResult struct {
	// BracketData is the (possibly prefilled) text of the bracket field.
	BracketData  string   `json:"bracket_data"`
	Prefilled    bool     `json:"prefilled"`
	Participants []string `json:"participants"`
	Summary      string   `json:"summary"`
	JSON         string   `json:"json,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type seedEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// BuildPreview mirrors the live preview of the tournament form.
func BuildPreview(input PreviewInput) PreviewResult {
	names := make([]string, 0, len(input.Participants))
	for _, n := range input.Participants {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	result := PreviewResult{BracketData: input.BracketData, Participants: names}

	if !input.UserEdited {
		seed := make([]seedEntry, len(names))
		for i, n := range names {
			seed[i] = seedEntry{ID: i + 1, Name: n}
		}
		body, _ := json.MarshalIndent(map[string][]seedEntry{"participants": seed}, "", "  ")
		result.BracketData = string(body)
		result.Prefilled = true
	}

	raw := strings.TrimSpace(result.BracketData)
	var bracket any
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &bracket); err != nil {
			result.Error = fmt.Sprintf("Invalid JSON in bracket data: %s", err.Error())
			return result
		}
	}

	result.Summary = fmt.Sprintf("Teams: %d", len(names))
	if bracket != nil {
		var out bytes.Buffer
		if err := json.Indent(&out, []byte(raw), "", "  "); err == nil {
			result.JSON = out.String()
		}
	} else {
		body, _ := json.MarshalIndent(map[string][]string{"seeding": names}, "", "  ")
		result.JSON = string(body)
	}
	return result
}

func (s *viewerService) Preview(ctx context.Context, account models.Account, input PreviewInput) (*PreviewResult, error) {
	access := TournamentAccess{}
	if !access.CreateAccess(account).IsAllowed() && !access.Access(account, OpUpdate).IsAllowed() {
		return nil, ErrForbiddenOperation
	}
	if len(input.ParticipantIDs) > 0 {
		names, err := s.participants.NamesByIDs(ctx, input.ParticipantIDs)
		if err != nil {
			return nil, err
		}
		input.Participants = names
	}
	result := BuildPreview(input)
	return &result, nil
}
