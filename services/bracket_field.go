package services

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Dosada05/bracket-manager/models"
)

// BracketFieldOptions name the row fields the bracket field reads from.
type BracketFieldOptions struct {
	NameField         string `json:"name_field"`
	ParticipantsField string `json:"participants_field"`
	BracketDataField  string `json:"bracket_data_field"`
}

func DefaultBracketFieldOptions() BracketFieldOptions {
	return BracketFieldOptions{
		NameField:         "title",
		ParticipantsField: "field_tournament_participants",
		BracketDataField:  "field_bracket_data",
	}
}

// withDefaults fills blank options from the defaults.
func (o BracketFieldOptions) withDefaults() BracketFieldOptions {
	d := DefaultBracketFieldOptions()
	if strings.TrimSpace(o.NameField) == "" {
		o.NameField = d.NameField
	}
	if strings.TrimSpace(o.ParticipantsField) == "" {
		o.ParticipantsField = d.ParticipantsField
	}
	if strings.TrimSpace(o.BracketDataField) == "" {
		o.BracketDataField = d.BracketDataField
	}
	return o
}

// ViewRow is one result row of a listing. Fields holds rendered field output,
// Values the raw column values. Entity may be nil for rows without one.
type ViewRow struct {
	Entity *models.Tournament
	Fields map[string]string
	Values map[string]string
}

// BracketFieldSettings is what views-bracket-viewer.js gets for one row.
type BracketFieldSettings struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

// BracketFieldBuild is the render output for one row.
type BracketFieldBuild struct {
	ElementID    string
	ViewID       string
	BracketID    string
	Classes      []string
	Name         string
	FallbackHTML string
	Library      string
	Settings     BracketFieldSettings
}

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeBracketID makes id safe for use in an element id and a settings key.
func SanitizeBracketID(id string) string {
	return unsafeIDChars.ReplaceAllString(id, "-")
}

var uniqueCounter atomic.Uint64

func uniqueBracketID() string {
	return fmt.Sprintf("bracket_%x.%d", time.Now().UnixNano(), uniqueCounter.Add(1))
}

// BracketField renders bracket containers for the rows of one view.
type BracketField struct {
	ViewID  string
	Options BracketFieldOptions

	newID func() string
}

func NewBracketField(viewID string, options BracketFieldOptions) *BracketField {
	return &BracketField{ViewID: viewID, Options: options.withDefaults(), newID: uniqueBracketID}
}

func (f *BracketField) Render(row ViewRow) BracketFieldBuild {
	bracketID := ""
	if row.Entity != nil && row.Entity.ID > 0 {
		bracketID = strconv.Itoa(row.Entity.ID)
	} else {
		bracketID = f.newID()
	}
	bracketID = SanitizeBracketID(bracketID)

	defaultName := "Tournament"
	if row.Entity != nil && row.Entity.Label() != "" {
		defaultName = row.Entity.Label()
	}
	name := extractValue(row, f.Options.NameField, defaultName)

	participants := f.participantNames(row)

	fallbackData := ""
	if row.Entity != nil {
		fallbackData = row.Entity.BracketData
	}
	data := decodeBracketData(extractValue(row, f.Options.BracketDataField, fallbackData))

	if isEmptyValue(data["participants"]) && len(participants) > 0 {
		list := make([]map[string]any, 0, len(participants))
		for i, p := range participants {
			list = append(list, map[string]any{"id": i + 1, "name": p})
		}
		data["participants"] = list
	}
	for _, key := range []string{"stages", "matches", "matchGames"} {
		if v, ok := data[key]; !ok || v == nil {
			data[key] = []any{}
		}
	}

	return BracketFieldBuild{
		ElementID:    "brackets-viewer-" + bracketID,
		ViewID:       f.ViewID,
		BracketID:    bracketID,
		Classes:      []string{"brackets-viewer", "js-brackets-viewer"},
		Name:         name,
		FallbackHTML: fmt.Sprintf(`Loading bracket for <em class="placeholder">%s</em>…`, html.EscapeString(name)),
		Library:      LibraryViewsBracketViewer,
		Settings:     BracketFieldSettings{Name: name, Data: data},
	}
}

// participantNames prefers the entity's participants, then the text of the
// participants field, one name per line.
func (f *BracketField) participantNames(row ViewRow) []string {
	if row.Entity != nil {
		if names := row.Entity.ParticipantNames(); len(names) > 0 {
			return names
		}
	}
	raw := extractValue(row, f.Options.ParticipantsField, "")
	if raw == "" {
		return nil
	}
	var names []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names
}

// extractValue looks a field up in the rendered output, the raw values and the
// entity, in that order. A present rendered or raw value wins even when empty.
func extractValue(row ViewRow, field, def string) string {
	if field == "" {
		return def
	}
	if v, ok := row.Fields[field]; ok {
		return v
	}
	if v, ok := row.Values[field]; ok {
		return v
	}
	if row.Entity != nil {
		if v, ok := entityFieldValue(row.Entity, field); ok {
			return v
		}
	}
	return def
}

// entityFieldValue returns the value of a non-empty base field.
func entityFieldValue(t *models.Tournament, field string) (string, bool) {
	switch field {
	case "id":
		return strconv.Itoa(t.ID), true
	case "name":
		return t.Name, t.Name != ""
	case "description":
		if t.Description == nil || *t.Description == "" {
			return "", false
		}
		return *t.Description, true
	case "bracket_data":
		return t.BracketData, t.BracketData != ""
	case "active":
		if t.Active {
			return "1", true
		}
		return "0", true
	}
	return "", false
}

func decodeBracketData(raw string) map[string]any {
	var data map[string]any
	if raw == "" || json.Unmarshal([]byte(raw), &data) != nil || data == nil {
		return map[string]any{}
	}
	return data
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	case string:
		return val == "" || val == "0"
	case bool:
		return !val
	case float64:
		return val == 0
	}
	return false
}
