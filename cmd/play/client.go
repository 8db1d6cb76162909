package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"lifesim/internal/game"
	"lifesim/internal/models"
)

// client talks to a running lifesim server. The cookie jar carries the
// session between calls.
type client struct {
	base string
	http *http.Client
}

func newClient(base string) (*client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &client{
		base: strings.TrimRight(base, "/"),
		// Model calls can take a while, reasoning models especially.
		http: &http.Client{Jar: jar, Timeout: 3 * time.Minute},
	}, nil
}

// view mirrors the server's game view.
type view struct {
	State    models.GameState     `json:"state"`
	Response *models.GameResponse `json:"response"`
	Fallback bool                 `json:"fallback"`
	CanUndo  bool                 `json:"canUndo"`
	SaveKey  string               `json:"saveKey"`
}

type presetEntry struct {
	Index int `json:"index"`
	game.Preset
}

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status  int    `json:"-"`
	Err     string `json:"error"`
	Message string `json:"message"`
	Hint    string `json:"hint"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Err, e.Message)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Err)
}

func (c *client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Err == "" {
			apiErr.Err = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if s, ok := out.(*string); ok {
		*s = string(data)
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *client) presets(ctx context.Context) ([]presetEntry, error) {
	var out []presetEntry
	err := c.do(ctx, http.MethodGet, "/api/presets", nil, &out)
	return out, err
}

// start begins a game from a preset; role, when set, overrides its target life.
func (c *client) start(ctx context.Context, preset int, role string, lang models.Language) (view, error) {
	req := map[string]any{"preset": preset}
	if role != "" {
		req["targetLife"] = role
	}
	if lang != "" {
		req["language"] = lang
	}
	var v view
	err := c.do(ctx, http.MethodPost, "/api/game/start", req, &v)
	return v, err
}

func (c *client) turn(ctx context.Context, input string) (view, error) {
	var v view
	err := c.do(ctx, http.MethodPost, "/api/game/turn", map[string]string{"input": input}, &v)
	return v, err
}

func (c *client) undo(ctx context.Context) (view, error) {
	var v view
	err := c.do(ctx, http.MethodPost, "/api/game/undo", nil, &v)
	return v, err
}

func (c *client) settle(ctx context.Context) (game.Settlement, error) {
	var s game.Settlement
	err := c.do(ctx, http.MethodPost, "/api/game/settle", nil, &s)
	return s, err
}

func (c *client) export(ctx context.Context) (string, error) {
	var md string
	err := c.do(ctx, http.MethodGet, "/api/game/export", nil, &md)
	return md, err
}

func (c *client) setModel(ctx context.Context, model string) (string, error) {
	var out struct {
		Model string `json:"model"`
	}
	err := c.do(ctx, http.MethodPost, "/api/settings/model", map[string]string{"model": model}, &out)
	return out.Model, err
}
