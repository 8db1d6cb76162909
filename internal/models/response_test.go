package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseGameResponseFull(t *testing.T) {
	raw := `{
		"event": "The partner hands you a contract.",
		"options": ["Review it", "Delegate"],
		"question": {"text": "Which clause is void?", "type": "Multiple Choice", "choices": ["A", "B"]},
		"statChanges": {"knowledge": 3, "stress": -2.6, "charisma": 4},
		"skillUpdates": {"Contract Law": {"level": "Intermediate", "trend": "up"}},
		"itemDrop": {"name": "Red Pen", "description": "Well used", "effect": "+focus"},
		"achievement": {"title": "First Review", "description": "Read every page"},
		"summaryUpdate": "You joined the firm."
	}`
	resp, err := ParseGameResponse(json.RawMessage(raw))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Event != "The partner hands you a contract." || len(resp.Options) != 2 {
		t.Errorf("event/options = %q %v", resp.Event, resp.Options)
	}
	if resp.Question == nil || resp.Question.Type != QuestionMultipleChoice || len(resp.Question.Choices) != 2 {
		t.Errorf("question = %+v", resp.Question)
	}
	if resp.StatChanges["knowledge"] != 3 || resp.StatChanges["stress"] != -3 || resp.StatChanges["charisma"] != 4 {
		t.Errorf("statChanges = %v", resp.StatChanges)
	}
	if resp.SkillUpdates["Contract Law"].Trend != "up" {
		t.Errorf("skills = %v", resp.SkillUpdates)
	}
	if resp.ItemDrop == nil || resp.ItemDrop.Effect != "+focus" {
		t.Errorf("item = %+v", resp.ItemDrop)
	}
	if resp.Achievement == nil || resp.Achievement.Title != "First Review" {
		t.Errorf("achievement = %+v", resp.Achievement)
	}
	if resp.SummaryUpdate == nil || *resp.SummaryUpdate != "You joined the firm." {
		t.Errorf("summary = %v", resp.SummaryUpdate)
	}
}

func TestParseGameResponseTolerant(t *testing.T) {
	raw := `{
		"event": 42,
		"options": ["ok", 3, null],
		"question": {"type": "Short Answer"},
		"statChanges": {"knowledge": "lots", "stress": 1e30},
		"skillUpdates": [],
		"itemDrop": null,
		"achievement": {"description": "no title"},
		"summaryUpdate": "  "
	}`
	resp, err := ParseGameResponse(json.RawMessage(raw))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Event != "" {
		t.Errorf("event = %q", resp.Event)
	}
	if len(resp.Options) != 1 || resp.Options[0] != "ok" {
		t.Errorf("options = %v", resp.Options)
	}
	if resp.Question != nil || resp.ItemDrop != nil || resp.Achievement != nil || resp.SkillUpdates != nil {
		t.Errorf("malformed optionals kept: %+v", resp)
	}
	if _, ok := resp.StatChanges["knowledge"]; ok {
		t.Errorf("non-numeric delta kept: %v", resp.StatChanges)
	}
	if resp.StatChanges["stress"] != maxDelta {
		t.Errorf("huge delta = %d", resp.StatChanges["stress"])
	}
	if resp.SummaryUpdate != nil {
		t.Errorf("blank summary kept: %q", *resp.SummaryUpdate)
	}
}

func TestParseGameResponseMinimal(t *testing.T) {
	resp, err := ParseGameResponse(json.RawMessage(`{"event":"ok"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Event != "ok" || resp.Options != nil || resp.StatChanges != nil || resp.SummaryUpdate != nil {
		t.Errorf("resp = %+v", resp)
	}
}

func TestParseGameResponseNotObject(t *testing.T) {
	for _, raw := range []string{`null`, `[]`, `"event"`, `{`, ``} {
		if _, err := ParseGameResponse(json.RawMessage(raw)); !errors.Is(err, ErrNotObject) {
			t.Errorf("ParseGameResponse(%q) err = %v", raw, err)
		}
	}
}

func TestParseGameResponseDropsNulls(t *testing.T) {
	raw := `{
		"event": "e",
		"options": ["A", null, "B"],
		"question": {"text": "q", "choices": [null, "x"]},
		"statChanges": {"stress": null, "knowledge": 2},
		"skillUpdates": {"Go": null, "Rust": "fast", "SQL": {"level": "Basic", "trend": "up"}}
	}`
	resp, err := ParseGameResponse(json.RawMessage(raw))
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Options) != 2 || resp.Options[0] != "A" || resp.Options[1] != "B" {
		t.Errorf("options = %q", resp.Options)
	}
	if resp.Question == nil || len(resp.Question.Choices) != 1 || resp.Question.Choices[0] != "x" {
		t.Errorf("question = %+v", resp.Question)
	}
	if _, ok := resp.StatChanges["stress"]; ok || resp.StatChanges["knowledge"] != 2 {
		t.Errorf("statChanges = %v", resp.StatChanges)
	}
	want := map[string]SkillEntry{"SQL": {Level: "Basic", Trend: "up"}}
	if len(resp.SkillUpdates) != 1 || resp.SkillUpdates["SQL"] != want["SQL"] {
		t.Errorf("skillUpdates = %+v, want %+v", resp.SkillUpdates, want)
	}
}

func TestParseGameResponseAllNullSkills(t *testing.T) {
	resp, err := ParseGameResponse(json.RawMessage(`{"event":"e","skillUpdates":{"Go":null}}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.SkillUpdates != nil {
		t.Errorf("skillUpdates = %+v, want nil", resp.SkillUpdates)
	}
}
