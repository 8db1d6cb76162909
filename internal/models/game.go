package models

import "encoding/json"

// InitialStats are the gauges every new game starts with
var InitialStats = PlayerStats{
	Knowledge:  20,
	Confidence: 30,
	Stress:     10,
	Resources:  50,
	Reputation: 10,
}

// TurnsPerChapter is how many turns make up one chapter
const TurnsPerChapter = 10

// Character describes the player avatar chosen at setup
type Character struct {
	Type   CharacterType   `json:"type"`
	Gender CharacterGender `json:"gender"`
}

// PlayerProfile is the identity and progress of the player
type PlayerProfile struct {
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	Goal       string     `json:"goal"`
	Difficulty Difficulty `json:"difficulty"`
	TurnCount  int        `json:"turnCount"`
	Mode       GameMode   `json:"mode"`
	Character  Character  `json:"character"`
}

// ChapterFor derives the chapter from a turn count.
func ChapterFor(turnCount int) int {
	return turnCount/TurnsPerChapter + 1
}

// Chapter is derived from TurnCount, never stored.
func (p PlayerProfile) Chapter() int {
	return ChapterFor(p.TurnCount)
}

// MarshalJSON emits the derived chapter next to the stored fields.
func (p PlayerProfile) MarshalJSON() ([]byte, error) {
	type profile PlayerProfile
	return json.Marshal(struct {
		profile
		Chapter int `json:"chapter"`
	}{profile: profile(p), Chapter: p.Chapter()})
}

// SkillEntry is the model's assessment of one skill
type SkillEntry struct {
	Level string `json:"level"`
	Trend string `json:"trend"`
}

// InventoryItem is an item dropped during play
type InventoryItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Effect      string `json:"effect,omitempty"`
}

// Achievement is unlocked by the model during play
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// HistoryEntry is one line of the transcript
type HistoryEntry struct {
	Turn   int    `json:"turn"`
	Event  string `json:"event"`
	Choice string `json:"choice,omitempty"`
}

// GameState is the aggregate root of one session
type GameState struct {
	PlayerProfile PlayerProfile         `json:"playerProfile"`
	Skills        map[string]SkillEntry `json:"skills"`
	Stats         PlayerStats           `json:"stats"`
	Inventory     []InventoryItem       `json:"inventory"`
	Achievements  []Achievement         `json:"achievements"`
	History       []HistoryEntry        `json:"history"`
	Summary       string                `json:"summary,omitempty"`
	Language      Language              `json:"language"`
	QuestionTypes []QuestionType        `json:"questionTypes,omitempty"`
}
