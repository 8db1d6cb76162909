package game

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"lifesim/internal/models"
)

func fixedReducer() Reducer {
	n := 0
	return Reducer{
		Now: func() time.Time { return time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	}
}

func startState() models.GameState {
	cfg := models.SimulationConfig{TargetLife: "Surgeon"}.Normalize()
	return NewGame(cfg, models.GameResponse{Event: "Day one."})
}

func strPtr(s string) *string { return &s }

func TestNewGame(t *testing.T) {
	cfg := models.SimulationConfig{
		TargetLife:    "Pilot",
		Difficulty:    models.DifficultyHard,
		Mode:          models.ModePractice,
		QuestionTypes: []models.QuestionType{models.QuestionShortAnswer},
		Language:      models.LanguageChineseTraditional,
		Character:     models.Character{Type: models.CharacterTeen, Gender: models.GenderFemale},
	}
	opening := models.GameResponse{
		Event:       "Welcome aboard.",
		StatChanges: map[string]int{"knowledge": 50},
		ItemDrop:    &models.InventoryItem{Name: "Logbook"},
	}
	st := NewGame(cfg, opening)

	p := st.PlayerProfile
	if p.Name != "User" || p.Goal != "Success" || p.Role != "Pilot" {
		t.Errorf("profile = %+v", p)
	}
	if p.TurnCount != 1 || p.Chapter() != 1 {
		t.Errorf("turn = %d chapter = %d, want 1 and 1", p.TurnCount, p.Chapter())
	}
	if st.Stats != models.InitialStats {
		t.Errorf("stats = %+v, opening deltas must not apply", st.Stats)
	}
	if len(st.Inventory) != 0 || len(st.Achievements) != 0 || len(st.Skills) != 0 {
		t.Error("opening response must only contribute its event")
	}
	if len(st.History) != 1 || st.History[0] != (models.HistoryEntry{Turn: 1, Event: "Welcome aboard."}) {
		t.Errorf("history = %+v", st.History)
	}
	if st.Language != models.LanguageChineseTraditional || len(st.QuestionTypes) != 1 {
		t.Errorf("language/question types not carried: %+v", st)
	}

	cfg.QuestionTypes[0] = models.QuestionLongReasoning
	if st.QuestionTypes[0] != models.QuestionShortAnswer {
		t.Error("NewGame shares the config's question type slice")
	}
}

func TestApplyTurnAdvancesTurnAndHistory(t *testing.T) {
	st := startState()
	r := fixedReducer()
	for i := 0; i < 12; i++ {
		st = r.ApplyTurn(st, models.GameResponse{Event: fmt.Sprintf("e%d", i)}, fmt.Sprintf("c%d", i))
	}
	if st.PlayerProfile.TurnCount != 13 {
		t.Fatalf("turnCount = %d, want 13", st.PlayerProfile.TurnCount)
	}
	if got := st.PlayerProfile.Chapter(); got != 2 {
		t.Errorf("chapter = %d, want 2", got)
	}
	if len(st.History) != 13 {
		t.Fatalf("history len = %d, want 13", len(st.History))
	}
	last := st.History[12]
	if last.Turn != 13 || last.Event != "e11" || last.Choice != "c11" {
		t.Errorf("last entry = %+v", last)
	}
}

func TestApplyTurnStats(t *testing.T) {
	tests := []struct {
		name    string
		changes map[string]int
		want    models.PlayerStats
	}{
		{
			name:    "deltas",
			changes: map[string]int{"knowledge": 5, "stress": 10},
			want:    models.PlayerStats{Knowledge: 25, Confidence: 30, Stress: 20, Resources: 50, Reputation: 10},
		},
		{
			name:    "clamped",
			changes: map[string]int{"stress": -50, "resources": 80},
			want:    models.PlayerStats{Knowledge: 20, Confidence: 30, Stress: 0, Resources: 100, Reputation: 10},
		},
		{
			name:    "unknown key ignored",
			changes: map[string]int{"charisma": 40},
			want:    models.InitialStats,
		},
		{
			name:    "extreme values",
			changes: map[string]int{"knowledge": 1 << 40, "reputation": -(1 << 40)},
			want:    models.PlayerStats{Knowledge: 100, Confidence: 30, Stress: 10, Resources: 50, Reputation: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fixedReducer().ApplyTurn(startState(), models.GameResponse{StatChanges: tt.changes}, "x")
			if got.Stats != tt.want {
				t.Errorf("stats = %+v, want %+v", got.Stats, tt.want)
			}
		})
	}
}

func TestApplyTurnItemsAndAchievements(t *testing.T) {
	r := fixedReducer()
	st := r.ApplyTurn(startState(), models.GameResponse{
		Event:       "found",
		ItemDrop:    &models.InventoryItem{ID: "model-id", Name: "Scalpel", Description: "Sharp"},
		Achievement: &models.Achievement{Title: "First Cut", Description: "Steady hands"},
	}, "operate")

	if len(st.Inventory) != 1 {
		t.Fatalf("inventory = %+v", st.Inventory)
	}
	if item := st.Inventory[0]; item.ID != "id-1" || item.Name != "Scalpel" {
		t.Errorf("item = %+v, want fresh id", item)
	}
	if len(st.Achievements) != 1 {
		t.Fatalf("achievements = %+v", st.Achievements)
	}
	if a := st.Achievements[0]; a.ID != "id-2" || a.Timestamp != "2:05:09 PM" {
		t.Errorf("achievement = %+v", a)
	}
}

func TestApplyTurnSkillsMerge(t *testing.T) {
	r := fixedReducer()
	st := startState()
	st = r.ApplyTurn(st, models.GameResponse{SkillUpdates: map[string]models.SkillEntry{
		"Suturing": {Level: "Novice", Trend: "up"},
		"Anatomy":  {Level: "Basic", Trend: "flat"},
	}}, "a")
	st = r.ApplyTurn(st, models.GameResponse{SkillUpdates: map[string]models.SkillEntry{
		"Suturing": {Level: "Competent", Trend: "up"},
	}}, "b")

	if len(st.Skills) != 2 {
		t.Fatalf("skills = %+v", st.Skills)
	}
	if st.Skills["Suturing"].Level != "Competent" || st.Skills["Anatomy"].Level != "Basic" {
		t.Errorf("skills = %+v", st.Skills)
	}
}

func TestApplyTurnNullSkillKeepsEntry(t *testing.T) {
	r := fixedReducer()
	st := startState()
	st = r.ApplyTurn(st, models.GameResponse{SkillUpdates: map[string]models.SkillEntry{
		"Go": {Level: "Advanced", Trend: "up"},
	}}, "a")

	resp, err := models.ParseGameResponse(json.RawMessage(`{"event":"e","skillUpdates":{"Go":null,"SQL":{"level":"Basic","trend":"flat"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	st = r.ApplyTurn(st, resp, "b")

	if got := st.Skills["Go"]; got != (models.SkillEntry{Level: "Advanced", Trend: "up"}) {
		t.Errorf("Go = %+v, want the previous entry", got)
	}
	if st.Skills["SQL"].Level != "Basic" {
		t.Errorf("skills = %+v", st.Skills)
	}
}

func TestApplyTurnSummary(t *testing.T) {
	r := fixedReducer()
	st := r.ApplyTurn(startState(), models.GameResponse{SummaryUpdate: strPtr("Chapter one closed.")}, "a")
	if st.Summary != "Chapter one closed." {
		t.Fatalf("summary = %q", st.Summary)
	}
	st = r.ApplyTurn(st, models.GameResponse{SummaryUpdate: strPtr("   ")}, "b")
	if st.Summary != "Chapter one closed." {
		t.Errorf("blank update replaced summary: %q", st.Summary)
	}
	st = r.ApplyTurn(st, models.GameResponse{}, "c")
	if st.Summary != "Chapter one closed." {
		t.Errorf("absent update replaced summary: %q", st.Summary)
	}
}

func TestApplyTurnDoesNotMutatePrevious(t *testing.T) {
	r := fixedReducer()
	prev := startState()
	prev.Inventory = make([]models.InventoryItem, 0, 8)
	prev.Skills["Anatomy"] = models.SkillEntry{Level: "Basic"}

	next := r.ApplyTurn(prev, models.GameResponse{
		StatChanges:  map[string]int{"knowledge": 10},
		ItemDrop:     &models.InventoryItem{Name: "Badge"},
		SkillUpdates: map[string]models.SkillEntry{"Anatomy": {Level: "Good"}},
	}, "a")
	other := r.ApplyTurn(prev, models.GameResponse{ItemDrop: &models.InventoryItem{Name: "Pager"}}, "b")

	if prev.PlayerProfile.TurnCount != 1 || prev.Stats != models.InitialStats {
		t.Errorf("prev profile/stats changed: %+v %+v", prev.PlayerProfile, prev.Stats)
	}
	if len(prev.Inventory) != 0 || len(prev.History) != 1 {
		t.Errorf("prev slices grew: inventory %d history %d", len(prev.Inventory), len(prev.History))
	}
	if prev.Skills["Anatomy"].Level != "Basic" {
		t.Errorf("prev skills changed: %+v", prev.Skills)
	}
	if next.Inventory[0].Name != "Badge" || other.Inventory[0].Name != "Pager" {
		t.Errorf("sibling states share backing arrays: %+v %+v", next.Inventory, other.Inventory)
	}
}

func TestApplyTurnEmptyEvent(t *testing.T) {
	st := fixedReducer().ApplyTurn(startState(), models.GameResponse{}, "wait")
	if got := st.History[len(st.History)-1]; got.Event != "" || got.Choice != "wait" || got.Turn != 2 {
		t.Errorf("entry = %+v", got)
	}
}
