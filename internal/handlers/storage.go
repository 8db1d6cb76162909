package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"lifesim/internal/models"
	"lifesim/internal/session"
)

// validStorageKey limits the raw storage API to save slots.
func validStorageKey(key string) bool {
	return session.IsSaveKey(key)
}

// validSave reports whether value decodes as a save with a running game.
func validSave(value json.RawMessage) bool {
	var save session.Save
	if err := json.Unmarshal(value, &save); err != nil {
		return false
	}
	return save.State.PlayerProfile.TurnCount >= 1 && len(save.State.History) > 0 &&
		save.State.Stats == clampStats(save.State.Stats)
}

func clampStats(s models.PlayerStats) models.PlayerStats {
	for _, name := range models.StatNames {
		v, _ := s.Get(name)
		s.Apply(name, models.ClampStat(v)-v)
	}
	return s
}

// StorageGet handles GET /api/storage
func (a *App) StorageGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	key := r.URL.Query().Get("key")
	list := r.URL.Query().Get("list")

	if list != "" {
		saves, err := a.store.List()
		if err != nil {
			slog.Error("failed to list saves", "error", err)
			json.NewEncoder(w).Encode([]any{})
			return
		}
		out := saves[:0]
		for _, sv := range saves {
			if validStorageKey(sv.ID) {
				out = append(out, sv)
			}
		}
		json.NewEncoder(w).Encode(out)
		return
	}

	if key == "" {
		w.WriteHeader(400)
		json.NewEncoder(w).Encode(map[string]string{"error": "Key is required"})
		return
	}

	if !validStorageKey(key) {
		w.WriteHeader(403)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid storage key"})
		return
	}

	data, err := a.store.Get(key)
	if err != nil {
		w.WriteHeader(500)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to read data"})
		return
	}
	if data == nil {
		json.NewEncoder(w).Encode(nil)
		return
	}
	w.Write(data)
}

// StoragePost handles POST /api/storage
func (a *App) StoragePost(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	r.Body = http.MaxBytesReader(w, r.Body, maxGameBody)

	var body struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(400)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
		return
	}

	if body.Key == "" || body.Value == nil {
		w.WriteHeader(400)
		json.NewEncoder(w).Encode(map[string]string{"error": "Key and value are required"})
		return
	}

	if !validStorageKey(body.Key) {
		w.WriteHeader(403)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid storage key"})
		return
	}

	if !validSave(body.Value) {
		w.WriteHeader(400)
		json.NewEncoder(w).Encode(map[string]string{"error": "Value is not a valid save"})
		return
	}

	if err := a.store.Set(body.Key, body.Value); err != nil {
		w.WriteHeader(500)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to save data"})
		return
	}

	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// StorageDelete handles DELETE /api/storage
func (a *App) StorageDelete(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	key := r.URL.Query().Get("key")
	if key == "" {
		w.WriteHeader(400)
		json.NewEncoder(w).Encode(map[string]string{"error": "Key is required"})
		return
	}

	if !validStorageKey(key) {
		w.WriteHeader(403)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid storage key"})
		return
	}

	if err := a.store.Delete(key); err != nil {
		w.WriteHeader(500)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to delete data"})
		return
	}

	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
