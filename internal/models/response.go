package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
)

// ErrNotObject is returned when a payload is not a JSON object.
var ErrNotObject = errors.New("payload is not a JSON object")

// Question is a structured challenge posed by the model
type Question struct {
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Choices []string     `json:"choices,omitempty"`
}

// GameResponse is the per-turn payload derived from the model output.
// Optional fields are nil when the model did not send them.
type GameResponse struct {
	Event         string                `json:"event"`
	Options       []string              `json:"options,omitempty"`
	Question      *Question             `json:"question,omitempty"`
	StatChanges   map[string]int        `json:"statChanges,omitempty"`
	SkillUpdates  map[string]SkillEntry `json:"skillUpdates,omitempty"`
	ItemDrop      *InventoryItem        `json:"itemDrop,omitempty"`
	Achievement   *Achievement          `json:"achievement,omitempty"`
	SummaryUpdate *string               `json:"summaryUpdate,omitempty"`
}

// ParseGameResponse decodes a model payload field by field. A malformed
// optional field is dropped instead of failing the whole response; only a
// payload that is not an object is an error.
func ParseGameResponse(raw json.RawMessage) (GameResponse, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return GameResponse{}, ErrNotObject
	}

	var resp GameResponse
	resp.Event = decodeText(fields["event"])

	if v, ok := fields["options"]; ok {
		resp.Options = decodeStrings(v)
	}
	if v, ok := fields["question"]; ok {
		var q struct {
			Text    string          `json:"text"`
			Type    QuestionType    `json:"type"`
			Choices json.RawMessage `json:"choices"`
		}
		if json.Unmarshal(v, &q) == nil && !isNull(v) && q.Text != "" {
			resp.Question = &Question{Text: q.Text, Type: q.Type, Choices: decodeStrings(q.Choices)}
		}
	}
	if v, ok := fields["statChanges"]; ok {
		resp.StatChanges = decodeDeltas(v)
	}
	if v, ok := fields["skillUpdates"]; ok {
		resp.SkillUpdates = decodeSkills(v)
	}
	if v, ok := fields["itemDrop"]; ok {
		var item InventoryItem
		if json.Unmarshal(v, &item) == nil && !isNull(v) && item.Name != "" {
			resp.ItemDrop = &item
		}
	}
	if v, ok := fields["achievement"]; ok {
		var ach Achievement
		if json.Unmarshal(v, &ach) == nil && !isNull(v) && ach.Title != "" {
			resp.Achievement = &ach
		}
	}
	if v, ok := fields["summaryUpdate"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil && strings.TrimSpace(s) != "" {
			resp.SummaryUpdate = &s
		}
	}
	return resp, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// decodeText accepts a JSON string; anything else yields "".
func decodeText(v json.RawMessage) string {
	var s string
	if len(v) == 0 || json.Unmarshal(v, &s) != nil {
		return ""
	}
	return s
}

// decodeStrings keeps the string elements of a JSON array.
func decodeStrings(v json.RawMessage) []string {
	var items []json.RawMessage
	if len(v) == 0 || json.Unmarshal(v, &items) != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		var s string
		if !isNull(item) && json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// decodeSkills keeps the entries that are JSON objects. A null entry is
// dropped so it cannot blank out a skill in the merge.
func decodeSkills(v json.RawMessage) map[string]SkillEntry {
	var raw map[string]json.RawMessage
	if len(v) == 0 || json.Unmarshal(v, &raw) != nil || len(raw) == 0 {
		return nil
	}
	out := make(map[string]SkillEntry, len(raw))
	for name, entry := range raw {
		var skill SkillEntry
		if isNull(entry) || json.Unmarshal(entry, &skill) != nil {
			continue
		}
		out[name] = skill
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// maxDelta bounds a single decoded delta; anything larger saturates a gauge anyway.
const maxDelta = 1e6

// decodeDeltas keeps numeric entries, rounding fractional values.
func decodeDeltas(v json.RawMessage) map[string]int {
	var raw map[string]json.RawMessage
	if len(v) == 0 || json.Unmarshal(v, &raw) != nil || len(raw) == 0 {
		return nil
	}
	out := make(map[string]int, len(raw))
	for k, n := range raw {
		var f float64
		if isNull(n) || json.Unmarshal(n, &f) != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out[k] = int(math.Round(max(min(f, maxDelta), -maxDelta)))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
