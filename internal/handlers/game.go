package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"lifesim/internal/ai"
	"lifesim/internal/game"
	"lifesim/internal/gateway"
	"lifesim/internal/models"
	"lifesim/internal/prompt"
	"lifesim/internal/session"
)

// unsafeHrefRe matches href/src attributes with dangerous URL schemes in goldmark output.
var unsafeHrefRe = regexp.MustCompile(`(?i)(href|src)="(?:javascript|vbscript|data):[^"]*"`)

// modelIDRe accepts provider/model identifiers such as "openai/gpt-4o:free".
var modelIDRe = regexp.MustCompile(`^[A-Za-z0-9._-]+/[A-Za-z0-9._:-]+$`)

var markdown = goldmark.New(goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()))

// maxGameBody caps session API bodies; a start request may carry documents.
const maxGameBody = 6 << 20

// gameView is what the session endpoints return
type gameView struct {
	State    models.GameState         `json:"state"`
	Response *models.GameResponse     `json:"response,omitempty"`
	Config   *models.SimulationConfig `json:"config,omitempty"`
	Fallback bool                     `json:"fallback,omitempty"`
	CanUndo  bool                     `json:"canUndo"`
	SaveKey  string                   `json:"saveKey,omitempty"`
}

func viewOf(s *session.SessionState) (gameView, bool) {
	state, resp, ok := s.Game()
	if !ok {
		return gameView{}, false
	}
	view := gameView{State: state, Response: resp, CanUndo: s.CanUndo(), SaveKey: s.ActiveSaveKey()}
	if cfg, ok := s.Config(); ok {
		view.Config = &cfg
	}
	return view, true
}

func writeNoGame(w http.ResponseWriter, status int) {
	writeError(w, status, "No game in progress", "Start a game with POST /api/game/start")
}

// startRequest is a full setup, or a preset index plus overrides.
type startRequest struct {
	models.SimulationConfig
	Preset *int `json:"preset,omitempty"`
}

// resolveConfig merges the preset, the overrides and request defaults.
func resolveConfig(req startRequest, acceptLanguage string) (models.SimulationConfig, error) {
	cfg := req.SimulationConfig
	if req.Preset != nil {
		p, err := game.PresetAt(*req.Preset)
		if err != nil {
			return models.SimulationConfig{}, err
		}
		cfg = overlay(p.Config(cfg.Language), req.SimulationConfig)
	}
	if cfg.Language == "" {
		cfg.Language = models.LanguageFromAcceptHeader(acceptLanguage)
	}
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return models.SimulationConfig{}, err
	}
	return cfg, nil
}

// overlay copies every field set in over onto base.
func overlay(base, over models.SimulationConfig) models.SimulationConfig {
	if strings.TrimSpace(over.TargetLife) != "" {
		base.TargetLife = over.TargetLife
	}
	if over.Difficulty != "" {
		base.Difficulty = over.Difficulty
	}
	if over.Mode != "" {
		base.Mode = over.Mode
	}
	if len(over.QuestionTypes) > 0 {
		base.QuestionTypes = over.QuestionTypes
	}
	if len(over.SkillPacks) > 0 {
		base.SkillPacks = over.SkillPacks
	}
	if over.Language != "" {
		base.Language = over.Language
	}
	if over.Theme != "" {
		base.Theme = over.Theme
	}
	if over.Character.Type != "" {
		base.Character.Type = over.Character.Type
	}
	if over.Character.Gender != "" {
		base.Character.Gender = over.Character.Gender
	}
	if len(over.Documents) > 0 {
		base.Documents = over.Documents
	}
	return base
}

// callModel sends messages for the session and decodes the game payload.
// On failure the response has already been written.
func (a *App) callModel(w http.ResponseWriter, r *http.Request, s *session.SessionState, messages []ai.ChatMessage) (models.GameResponse, *gateway.Result, bool) {
	raw, err := ai.MarshalMessages(messages)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error", err.Error())
		return models.GameResponse{}, nil, false
	}
	res, err := a.adapter().Send(r.Context(), gateway.Request{
		Method:          http.MethodPost,
		Messages:        raw,
		Model:           s.ModelID(),
		EnableReasoning: a.cfg.Reasoning,
		Referer:         requestReferer(r),
	})
	if err != nil {
		writeGatewayError(w, err)
		return models.GameResponse{}, nil, false
	}
	resp, err := res.Response()
	if err != nil {
		slog.Error("undecodable model payload", "model", res.Model, "error", err)
		writeError(w, http.StatusBadGateway, "Invalid model payload", err.Error())
		return models.GameResponse{}, nil, false
	}
	return resp, res, true
}

// Presets handles GET /api/presets
func (a *App) Presets(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Index int `json:"index"`
		game.Preset
	}
	presets := game.Presets()
	out := make([]entry, len(presets))
	for i, p := range presets {
		out[i] = entry{Index: i, Preset: p}
	}
	writeJSON(w, http.StatusOK, out)
}

// StartGame handles POST /api/game/start
func (a *App) StartGame(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxGameBody)
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	cfg, err := resolveConfig(req, r.Header.Get("Accept-Language"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid config", err.Error())
		return
	}

	messages, err := prompt.BuildStart(cfg)
	if err != nil {
		slog.Error("build start prompt", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error", err.Error())
		return
	}

	s := a.getSession(r)
	resp, res, ok := a.callModel(w, r, s, messages)
	if !ok {
		return
	}

	state := game.NewGame(cfg, resp)
	if err := s.Start(cfg, state, resp); err != nil {
		slog.Error("failed to persist new game", "error", err)
	}
	a.metrics.RecordTurn(r.Context(), string(cfg.Mode))
	slog.Info("game started", "role", cfg.TargetLife, "mode", cfg.Mode, "model", res.Model, "fallback", res.Fallback)

	view, _ := viewOf(s)
	view.Fallback = res.Fallback
	writeJSON(w, http.StatusOK, view)
}

// Turn handles POST /api/game/turn
func (a *App) Turn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var body struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	input := strings.TrimSpace(body.Input)
	if input == "" {
		writeError(w, http.StatusBadRequest, "Missing input", "Request body must include a non-empty input")
		return
	}

	s := a.getSession(r)
	state, _, ok := s.Game()
	if !ok {
		writeNoGame(w, http.StatusConflict)
		return
	}

	messages, err := prompt.BuildTurn(state, input)
	if err != nil {
		slog.Error("build turn prompt", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error", err.Error())
		return
	}
	resp, res, ok := a.callModel(w, r, s, messages)
	if !ok {
		return
	}

	next := a.reducer.ApplyTurn(state, resp, input)
	if err := s.Advance(next, resp); err != nil {
		if errors.Is(err, session.ErrNoGame) {
			writeNoGame(w, http.StatusConflict)
			return
		}
		slog.Error("failed to persist turn", "error", err)
	}
	a.metrics.RecordTurn(r.Context(), string(next.PlayerProfile.Mode))

	view, _ := viewOf(s)
	view.Fallback = res.Fallback
	writeJSON(w, http.StatusOK, view)
}

// CurrentGame handles GET /api/game
func (a *App) CurrentGame(w http.ResponseWriter, r *http.Request) {
	view, ok := viewOf(a.getSession(r))
	if !ok {
		writeNoGame(w, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Undo handles POST /api/game/undo
func (a *App) Undo(w http.ResponseWriter, r *http.Request) {
	s := a.getSession(r)
	if err := s.Undo(); err != nil {
		switch {
		case errors.Is(err, session.ErrNoGame):
			writeNoGame(w, http.StatusConflict)
		case errors.Is(err, session.ErrNothingToUndo):
			writeError(w, http.StatusConflict, "Nothing to undo", "")
		default:
			slog.Error("failed to persist undo", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to save data", err.Error())
		}
		return
	}
	view, _ := viewOf(s)
	writeJSON(w, http.StatusOK, view)
}

// Settle handles POST /api/game/settle
func (a *App) Settle(w http.ResponseWriter, r *http.Request) {
	state, _, ok := a.getSession(r).Game()
	if !ok {
		writeNoGame(w, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, game.Settle(state))
}

// Reset handles POST /api/game/reset: the game is saved, then dropped.
func (a *App) Reset(w http.ResponseWriter, r *http.Request) {
	s := a.getSession(r)
	if err := s.Persist(); err != nil {
		slog.Error("failed to persist before reset", "error", err)
	}
	s.Reset()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Export handles GET /api/game/export
func (a *App) Export(w http.ResponseWriter, r *http.Request) {
	state, _, ok := a.getSession(r).Game()
	if !ok {
		writeNoGame(w, http.StatusConflict)
		return
	}
	md := transcript(state)

	if r.URL.Query().Get("format") != "html" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(md))
		return
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		slog.Error("render transcript", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(unsafeHrefRe.ReplaceAllString(buf.String(), `$1="#"`)))
}

// transcript renders the run as markdown.
func transcript(st models.GameState) string {
	var b strings.Builder
	p := st.PlayerProfile
	fmt.Fprintf(&b, "# %s\n\n", p.Role)
	fmt.Fprintf(&b, "%s · %s · Chapter %d · Turn %d\n\n", p.Difficulty, p.Mode, p.Chapter(), p.TurnCount)

	b.WriteString("## Stats\n\n")
	for _, name := range models.StatNames {
		v, _ := st.Stats.Get(name)
		fmt.Fprintf(&b, "- %s: %d\n", name, v)
	}
	b.WriteString("\n")

	if st.Summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", st.Summary)
	}
	if len(st.Achievements) > 0 {
		b.WriteString("## Achievements\n\n")
		for _, ach := range st.Achievements {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", ach.Title, ach.Timestamp, ach.Description)
		}
		b.WriteString("\n")
	}
	if len(st.Inventory) > 0 {
		b.WriteString("## Inventory\n\n")
		for _, item := range st.Inventory {
			fmt.Fprintf(&b, "- **%s**: %s\n", item.Name, item.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("## History\n\n")
	for _, h := range st.History {
		fmt.Fprintf(&b, "### Turn %d\n\n", h.Turn)
		if h.Choice != "" {
			fmt.Fprintf(&b, "> %s\n\n", h.Choice)
		}
		fmt.Fprintf(&b, "%s\n\n", h.Event)
	}
	return b.String()
}

// SetModel handles POST /api/settings/model; an empty model clears the override.
func (a *App) SetModel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	var body struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	model := strings.TrimSpace(body.Model)
	if model != "" && !modelIDRe.MatchString(model) {
		writeError(w, http.StatusBadRequest, "Invalid model", model)
		return
	}
	s := a.getSession(r)
	s.SetModelID(model)
	writeJSON(w, http.StatusOK, map[string]string{"model": ai.SelectModel(model, a.cfg.DefaultModel())})
}

// Saves handles GET /api/saves
func (a *App) Saves(w http.ResponseWriter, r *http.Request) {
	type saveEntry struct {
		ID        string `json:"id"`
		UpdatedAt string `json:"updatedAt"`
		Active    bool   `json:"active"`
	}
	saves, err := a.store.List()
	if err != nil {
		slog.Error("failed to list saves", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read data", err.Error())
		return
	}
	active := a.getSession(r).ActiveSaveKey()
	out := []saveEntry{}
	for _, sv := range saves {
		if !session.IsSaveKey(sv.ID) {
			continue
		}
		out = append(out, saveEntry{
			ID:        sv.ID,
			UpdatedAt: sv.UpdatedAt.Format("Jan 2, 2006 3:04 PM"),
			Active:    sv.ID == active,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// LoadGame handles POST /api/game/load
func (a *App) LoadGame(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	var body struct {
		Save string `json:"save"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if !session.IsSaveKey(body.Save) {
		writeError(w, http.StatusBadRequest, "Invalid save ID", body.Save)
		return
	}

	s := a.getSession(r)
	if err := s.Load(body.Save); err != nil {
		if errors.Is(err, session.ErrNoGame) {
			writeError(w, http.StatusNotFound, "Save not found", body.Save)
			return
		}
		slog.Error("failed to load save", "save", body.Save, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load save", err.Error())
		return
	}
	view, _ := viewOf(s)
	writeJSON(w, http.StatusOK, view)
}
