package game

import "lifesim/internal/models"

// Grade is the letter awarded at settlement
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

var difficultyMultiplier = map[models.Difficulty]float64{
	models.DifficultyEasy:   0.7,
	models.DifficultyNormal: 1.0,
	models.DifficultyHard:   1.4,
	models.DifficultyExpert: 2.0,
}

var verdicts = map[Grade]string{
	GradeS: "Exceptional synchronization. You mastered the path.",
	GradeA: "Strong performance. The future looks bright.",
	GradeB: "Adequate trajectory. Room for optimization.",
	GradeC: "Average cycle. Survived the simulation.",
	GradeD: "Simulation failed. Reset required.",
}

// gradeFloors are exclusive lower bounds, best grade first.
var gradeFloors = []struct {
	grade Grade
	floor float64
}{
	{GradeS, 250},
	{GradeA, 180},
	{GradeB, 120},
	{GradeC, 70},
}

// Settlement is the end-of-run report
type Settlement struct {
	Role       string             `json:"role"`
	Difficulty models.Difficulty  `json:"difficulty"`
	Turns      int                `json:"turns"`
	Chapter    int                `json:"chapter"`
	Stats      models.PlayerStats `json:"stats"`
	Score      float64            `json:"score"`
	Grade      Grade              `json:"grade"`
	Verdict    string             `json:"verdict"`
}

// Settle scores a finished run.
func Settle(state models.GameState) Settlement {
	s := state.Stats
	raw := float64(s.Knowledge)*1.5 + float64(s.Reputation)*1.2 + float64(s.Resources) - float64(s.Stress)*0.5
	mult, ok := difficultyMultiplier[state.PlayerProfile.Difficulty]
	if !ok {
		mult = 1.0
	}
	score := raw * mult

	grade := GradeD
	for _, g := range gradeFloors {
		if score > g.floor {
			grade = g.grade
			break
		}
	}

	return Settlement{
		Role:       state.PlayerProfile.Role,
		Difficulty: state.PlayerProfile.Difficulty,
		Turns:      state.PlayerProfile.TurnCount,
		Chapter:    state.PlayerProfile.Chapter(),
		Stats:      s,
		Score:      score,
		Grade:      grade,
		Verdict:    verdicts[grade],
	}
}
