package game

import (
	"slices"

	"lifesim/internal/models"
)

// Defaults for a fresh profile.
const (
	DefaultPlayerName = "User"
	DefaultGoal       = "Success"
)

// NewGame builds the state right after setup. The opening response only
// contributes its narrative as the turn-1 history entry.
func NewGame(cfg models.SimulationConfig, opening models.GameResponse) models.GameState {
	return models.GameState{
		PlayerProfile: models.PlayerProfile{
			Name:       DefaultPlayerName,
			Role:       cfg.TargetLife,
			Goal:       DefaultGoal,
			Difficulty: cfg.Difficulty,
			TurnCount:  1,
			Mode:       cfg.Mode,
			Character:  cfg.Character,
		},
		Skills:        map[string]models.SkillEntry{},
		Stats:         models.InitialStats,
		Inventory:     []models.InventoryItem{},
		Achievements:  []models.Achievement{},
		History:       []models.HistoryEntry{{Turn: 1, Event: opening.Event}},
		Language:      cfg.Language,
		QuestionTypes: slices.Clone(cfg.QuestionTypes),
	}
}
