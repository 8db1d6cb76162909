// Package session holds the live game of one browser session and persists
// it as a save slot.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lifesim/internal/models"
	"lifesim/internal/storage"
)

// SavePrefix starts every save slot key.
const SavePrefix = "lifesim-save"

// maxSnapshots bounds the undo stack.
const maxSnapshots = 50

// ErrNoGame is returned by operations that need a running game.
var ErrNoGame = errors.New("no game in progress")

// ErrNothingToUndo is returned when the undo stack is empty.
var ErrNothingToUndo = errors.New("nothing to undo")

// Save is the persisted form of a session
type Save struct {
	State    models.GameState         `json:"state"`
	Response *models.GameResponse     `json:"response,omitempty"`
	Config   *models.SimulationConfig `json:"config,omitempty"`
	ModelID  string                   `json:"modelId,omitempty"`
}

type snapshot struct {
	state    models.GameState
	response *models.GameResponse
}

// SessionState manages the game of one session. Handlers additionally
// serialise whole requests with the per-session mutex.
type SessionState struct {
	mu            sync.RWMutex
	store         *storage.Store
	state         *models.GameState
	response      *models.GameResponse
	config        *models.SimulationConfig
	snapshots     []snapshot
	activeSaveKey string
	modelID       string
	lastAccessed  time.Time
}

// NewSessionState creates an empty session backed by store.
func NewSessionState(store *storage.Store) *SessionState {
	return &SessionState{
		store:        store,
		lastAccessed: time.Now(),
	}
}

// NewSaveKey returns a fresh save slot key.
func NewSaveKey() string {
	return SavePrefix + "-" + uuid.NewString()
}

// IsSaveKey reports whether key names a save slot.
func IsSaveKey(key string) bool {
	return key == SavePrefix || strings.HasPrefix(key, SavePrefix+"-")
}

// Touch updates the last access time
func (s *SessionState) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessed = time.Now()
}

// LastAccessed returns the last access time
func (s *SessionState) LastAccessed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccessed
}

// Start replaces any running game with a new one in a fresh save slot.
func (s *SessionState) Start(cfg models.SimulationConfig, state models.GameState, resp models.GameResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg.Documents = nil
	s.config = &cfg
	s.state = &state
	s.response = &resp
	s.snapshots = nil
	s.activeSaveKey = NewSaveKey()
	return s.persist()
}

// Advance records an accepted turn. The previous state goes on the undo
// stack.
func (s *SessionState) Advance(state models.GameState, resp models.GameResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return ErrNoGame
	}
	s.snapshots = append(s.snapshots, snapshot{state: *s.state, response: s.response})
	if len(s.snapshots) > maxSnapshots {
		s.snapshots = s.snapshots[len(s.snapshots)-maxSnapshots:]
	}
	s.state = &state
	s.response = &resp
	return s.persist()
}

// Undo restores the state before the last accepted turn.
func (s *SessionState) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return ErrNoGame
	}
	n := len(s.snapshots)
	if n == 0 {
		return ErrNothingToUndo
	}
	last := s.snapshots[n-1]
	s.snapshots = s.snapshots[:n-1]
	s.state = &last.state
	s.response = last.response
	return s.persist()
}

// CanUndo reports whether Undo would succeed.
func (s *SessionState) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state != nil && len(s.snapshots) > 0
}

// Game returns the current state and last response. ok is false when no
// game is running.
func (s *SessionState) Game() (state models.GameState, resp *models.GameResponse, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return models.GameState{}, nil, false
	}
	return *s.state, s.response, true
}

// Config returns the setup of the running game, if known.
func (s *SessionState) Config() (models.SimulationConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return models.SimulationConfig{}, false
	}
	return *s.config, true
}

// Reset drops the live game. The save slot stays on disk.
func (s *SessionState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	s.response = nil
	s.config = nil
	s.snapshots = nil
	s.activeSaveKey = ""
}

// ModelID returns the per-session model override.
func (s *SessionState) ModelID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelID
}

// SetModelID sets the per-session model override; "" clears it.
func (s *SessionState) SetModelID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelID = strings.TrimSpace(id)
}

// ActiveSaveKey returns the save slot of the running game.
func (s *SessionState) ActiveSaveKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSaveKey
}

// Persist saves the current state
func (s *SessionState) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persist()
}

func (s *SessionState) persist() error {
	if s.state == nil || s.activeSaveKey == "" {
		return nil
	}
	save := Save{State: *s.state, Response: s.response, Config: s.config, ModelID: s.modelID}
	if err := s.store.SetJSON(s.activeSaveKey, save); err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

// Load replaces the session with a save slot. The undo stack starts empty.
func (s *SessionState) Load(saveKey string) error {
	if !IsSaveKey(saveKey) {
		return fmt.Errorf("invalid save key %q", saveKey)
	}
	var save Save
	ok, err := s.store.GetJSON(saveKey, &save)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	if !ok {
		return fmt.Errorf("load game: %w", ErrNoGame)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeSaveKey = saveKey
	s.state = &save.State
	s.response = save.Response
	s.config = save.Config
	s.snapshots = nil
	if save.ModelID != "" {
		s.modelID = save.ModelID
	}
	return nil
}
