// Package game holds the rules that move a GameState from one turn to the
// next. Nothing here performs I/O.
package game

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"lifesim/internal/models"
)

// TimestampLayout formats achievement unlock times
const TimestampLayout = "3:04:05 PM"

// Reducer applies model responses to game state. Now and NewID are its only
// inputs besides the arguments, so tests can pin them.
type Reducer struct {
	Now   func() time.Time
	NewID func() string
}

// DefaultReducer uses the wall clock and time-ordered UUIDs.
var DefaultReducer = Reducer{Now: time.Now, NewID: newID}

// newID returns a UUIDv7 so ids sort by insertion time across turns.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// ApplyTurn applies resp with the DefaultReducer.
func ApplyTurn(prev models.GameState, resp models.GameResponse, input string) models.GameState {
	return DefaultReducer.ApplyTurn(prev, resp, input)
}

// ApplyTurn returns the state after one accepted turn. prev is not modified:
// every slice and map that changes is copied first.
func (r Reducer) ApplyTurn(prev models.GameState, resp models.GameResponse, input string) models.GameState {
	next := prev
	next.PlayerProfile.TurnCount = prev.PlayerProfile.TurnCount + 1

	for key, delta := range resp.StatChanges {
		next.Stats.Apply(models.StatName(key), delta)
	}

	if resp.ItemDrop != nil {
		item := *resp.ItemDrop
		item.ID = r.NewID()
		next.Inventory = append(slices.Clip(prev.Inventory), item)
	}

	if resp.Achievement != nil {
		ach := *resp.Achievement
		ach.ID = r.NewID()
		ach.Timestamp = r.Now().Format(TimestampLayout)
		next.Achievements = append(slices.Clip(prev.Achievements), ach)
	}

	next.Skills = mergeSkills(prev.Skills, resp.SkillUpdates)

	next.History = append(slices.Clip(prev.History), models.HistoryEntry{
		Turn:   next.PlayerProfile.TurnCount,
		Event:  resp.Event,
		Choice: input,
	})

	if resp.SummaryUpdate != nil && strings.TrimSpace(*resp.SummaryUpdate) != "" {
		next.Summary = *resp.SummaryUpdate
	}
	return next
}

// mergeSkills overlays updates on prev into a fresh map; same-named entries
// are replaced whole.
func mergeSkills(prev, updates map[string]models.SkillEntry) map[string]models.SkillEntry {
	out := make(map[string]models.SkillEntry, len(prev)+len(updates))
	maps.Copy(out, prev)
	maps.Copy(out, updates)
	return out
}
