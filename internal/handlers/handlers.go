package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"lifesim/internal/config"
	"lifesim/internal/game"
	"lifesim/internal/gateway"
	"lifesim/internal/observe"
	"lifesim/internal/session"
	"lifesim/internal/storage"
)

const sessionCookieName = "lifesim_session"

// evictionInterval is how often idle sessions are looked for.
const evictionInterval = 5 * time.Minute

// App holds the application state and dependencies
type App struct {
	cfg     config.Config
	store   *storage.Store
	metrics *observe.Metrics
	reducer game.Reducer

	// HTTP is the client used for provider calls; nil means http.DefaultClient.
	HTTP *http.Client

	sessions       sync.Map // map[string]*session.SessionState
	sessionMutexes sync.Map // map[string]*sync.Mutex
}

// NewApp creates the app. metrics may be nil.
func NewApp(cfg config.Config, store *storage.Store, metrics *observe.Metrics) *App {
	return &App{
		cfg:     cfg,
		store:   store,
		metrics: metrics,
		reducer: game.DefaultReducer,
	}
}

// Routes registers every endpoint on a new mux.
func (a *App) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Stateless gateway; method checking is part of its contract.
	mux.HandleFunc("/api/llm", a.LLM)

	mux.HandleFunc("GET /healthz", a.Health)
	mux.HandleFunc("GET /api/presets", a.Presets)

	mux.HandleFunc("POST /api/game/start", a.WithSessionLock(a.StartGame))
	mux.HandleFunc("POST /api/game/turn", a.WithSessionLock(a.Turn))
	mux.HandleFunc("GET /api/game", a.WithSessionLock(a.CurrentGame))
	mux.HandleFunc("POST /api/game/undo", a.WithSessionLock(a.Undo))
	mux.HandleFunc("POST /api/game/settle", a.WithSessionLock(a.Settle))
	mux.HandleFunc("POST /api/game/reset", a.WithSessionLock(a.Reset))
	mux.HandleFunc("GET /api/game/export", a.WithSessionLock(a.Export))
	mux.HandleFunc("POST /api/game/load", a.WithSessionLock(a.LoadGame))
	mux.HandleFunc("GET /api/saves", a.WithSessionLock(a.Saves))
	mux.HandleFunc("POST /api/settings/model", a.WithSessionLock(a.SetModel))

	// Storage API (JSON, for compatibility)
	mux.HandleFunc("GET /api/storage", a.StorageGet)
	mux.HandleFunc("POST /api/storage", a.StoragePost)
	mux.HandleFunc("DELETE /api/storage", a.StorageDelete)

	return mux
}

// adapter builds the short-lived gateway for one request.
func (a *App) adapter() *gateway.Adapter {
	return gateway.New(gateway.Config{
		APIKey:       a.cfg.APIKey,
		DefaultModel: a.cfg.DefaultModel(),
		URL:          a.cfg.URL,
		Title:        a.cfg.AppTitle,
		Referer:      a.cfg.AppURL,
		HTTP:         a.HTTP,
		Metrics:      a.metrics,
	})
}

// requestReferer is the Origin header, else the Referer header.
func requestReferer(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	return r.Header.Get("Referer")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func writeError(w http.ResponseWriter, status int, errText, message string) {
	writeJSON(w, status, errorBody{Error: errText, Message: message})
}

// getSession retrieves the session for this request, creating one if needed.
// Must be called from a handler wrapped with WithSessionLock.
func (a *App) getSession(r *http.Request) *session.SessionState {
	sid := r.Context().Value(sessionIDKey).(string)
	if val, ok := a.sessions.Load(sid); ok {
		s := val.(*session.SessionState)
		s.Touch()
		return s
	}
	s := session.NewSessionState(a.store)
	a.sessions.Store(sid, s)
	return s
}

func (a *App) getSessionMutex(sessionID string) *sync.Mutex {
	v, _ := a.sessionMutexes.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (a *App) getSessionID(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

type contextKey string

const sessionIDKey contextKey = "sessionID"

// WithSessionLock returns middleware that acquires the session mutex for the
// duration of the request, creating a session ID and cookie if none exists.
func (a *App) WithSessionLock(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := a.getSessionID(r)
		if sid == "" {
			sid = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   30 * 24 * 60 * 60,
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}
		mu := a.getSessionMutex(sid)
		mu.Lock()
		defer mu.Unlock()
		ctx := context.WithValue(r.Context(), sessionIDKey, sid)
		next(w, r.WithContext(ctx))
	}
}

// Health reports liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RunEviction evicts idle sessions until ctx is done.
func (a *App) RunEviction(ctx context.Context) error {
	ticker := time.NewTicker(evictionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.persistAll()
			return nil
		case now := <-ticker.C:
			a.evictSessions(now)
		}
	}
}

func (a *App) evictSessions(now time.Time) int {
	evicted := 0
	a.sessions.Range(func(key, value any) bool {
		s := value.(*session.SessionState)
		if now.Sub(s.LastAccessed()) <= a.cfg.SessionIdleTTL {
			return true
		}
		mu := a.getSessionMutex(key.(string))
		if !mu.TryLock() {
			return true // in use, skip
		}
		if err := s.Persist(); err != nil {
			slog.Error("failed to persist session before eviction", "session", key, "error", err)
		}
		a.sessions.Delete(key)
		a.sessionMutexes.Delete(key)
		mu.Unlock()
		evicted++
		slog.Info("evicted idle session", "session", key)
		return true
	})
	return evicted
}

// persistAll saves every live session, used on shutdown.
func (a *App) persistAll() {
	a.sessions.Range(func(key, value any) bool {
		if err := value.(*session.SessionState).Persist(); err != nil {
			slog.Error("failed to persist session on shutdown", "session", key, "error", err)
		}
		return true
	})
}
