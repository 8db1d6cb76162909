// Package prompt turns a setup or a live game into the two-message
// conversation sent to the model.
package prompt

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"lifesim/internal/ai"
	"lifesim/internal/models"
)

//go:embed prompts/system.txt
var systemPreamble string

//go:embed prompts/start.txt
var startPrompt string

//go:embed prompts/turn.txt
var turnPrompt string

var funcs = template.FuncMap{"join": strings.Join}

var (
	startTmpl = template.Must(template.New("start").Funcs(funcs).Parse(startPrompt))
	turnTmpl  = template.Must(template.New("turn").Funcs(funcs).Parse(turnPrompt))
)

const (
	directiveChinese = "IMPORTANT: Respond entirely in Chinese."
	directiveEnglish = "IMPORTANT: Respond entirely in English."

	// summaryPlaceholder stands in for a summary the model has not written yet.
	summaryPlaceholder = "Start"
)

// LanguageDirective is binary: any zh-* tag asks for Chinese.
func LanguageDirective(lang models.Language) string {
	if lang.IsChinese() {
		return directiveChinese
	}
	return directiveEnglish
}

// StartModeDirective frames the opening request.
func StartModeDirective(mode models.GameMode, questionTypes []models.QuestionType) string {
	if mode == models.ModeStory {
		return "STORY MODE: Immersive narrative, NPC dialogue, and professional situational challenges. Draw on the reference documents naturally within the plot."
	}
	return fmt.Sprintf("PRACTICE MODE: Technical assessment. Focus on these question formats: %s. Build structured exam-style questions or professional case studies from the core knowledge of the path.",
		joinQuestionTypes(questionTypes))
}

// TurnModeDirective frames a follow-up request.
func TurnModeDirective(mode models.GameMode, questionTypes []models.QuestionType) string {
	if mode == models.ModeStory {
		return "STORY MODE: Continue the narrative path and keep NPC relationships consistent."
	}
	return fmt.Sprintf("PRACTICE MODE: Continue the technical assessment using these question formats: %s.",
		joinQuestionTypes(questionTypes))
}

func joinQuestionTypes(types []models.QuestionType) string {
	if len(types) == 0 {
		return "any format"
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func system(lang, mode string) ai.ChatMessage {
	return ai.ChatMessage{Role: "system", Content: systemPreamble + "\n" + lang + "\n" + mode}
}

// BuildStart builds the messages that open a new simulation.
func BuildStart(cfg models.SimulationConfig) ([]ai.ChatMessage, error) {
	lang := LanguageDirective(cfg.Language)
	mode := StartModeDirective(cfg.Mode, cfg.QuestionTypes)

	var buf bytes.Buffer
	data := struct {
		Language  string
		Mode      string
		Character string
		Config    models.SimulationConfig
	}{
		Language:  lang,
		Mode:      mode,
		Character: describeCharacter(cfg.Character),
		Config:    cfg,
	}
	if err := startTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render start prompt: %w", err)
	}

	return []ai.ChatMessage{
		system(lang, mode),
		{Role: "user", Content: buf.String()},
	}, nil
}

// BuildTurn builds the messages for the next turn of a running game.
func BuildTurn(state models.GameState, input string) ([]ai.ChatMessage, error) {
	lang := LanguageDirective(state.Language)
	mode := TurnModeDirective(state.PlayerProfile.Mode, state.QuestionTypes)

	profile, err := json.Marshal(state.PlayerProfile)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	stats, err := json.Marshal(state.Stats)
	if err != nil {
		return nil, fmt.Errorf("marshal stats: %w", err)
	}
	summary := state.Summary
	if summary == "" {
		summary = summaryPlaceholder
	}
	turn := state.PlayerProfile.TurnCount

	var buf bytes.Buffer
	data := struct {
		Language   string
		Mode       string
		Input      string
		Profile    string
		Stats      string
		Summary    string
		Turn       int
		SummaryDue bool
	}{
		Language:   lang,
		Mode:       mode,
		Input:      input,
		Profile:    string(profile),
		Stats:      string(stats),
		Summary:    summary,
		Turn:       turn,
		SummaryDue: SummaryDue(turn),
	}
	if err := turnTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render turn prompt: %w", err)
	}

	return []ai.ChatMessage{
		system(lang, mode),
		{Role: "user", Content: buf.String()},
	}, nil
}

// SummaryDue reports whether the model must send a summaryUpdate this turn.
func SummaryDue(turn int) bool {
	return turn > 0 && turn%models.TurnsPerChapter == 0
}

var ageBands = map[models.CharacterType]string{
	models.CharacterKid:    "child",
	models.CharacterTeen:   "teenager",
	models.CharacterAdult:  "adult",
	models.CharacterSenior: "senior",
}

func describeCharacter(c models.Character) string {
	gender := "male"
	if c.Gender == models.GenderFemale {
		gender = "female"
	}
	band, ok := ageBands[c.Type]
	if !ok {
		band = "adult"
	}
	return gender + " " + band
}
