package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"lifesim/internal/gateway"
)

// maxLLMBody caps /api/llm request bodies; attached documents make them large.
const maxLLMBody = 6 << 20

const (
	hintMissingKey      = "Please configure OPENROUTER_API_KEY in the server environment"
	hintMissingMessages = "Request body must include a non-empty messages array"
	hintRateLimited     = "System limit reached. Configure a personal OPENROUTER_API_KEY for uninterrupted simulation"
)

// llmBody is decoded leniently: a field of the wrong type is ignored.
type llmBody struct {
	Model           json.RawMessage `json:"model"`
	Messages        json.RawMessage `json:"messages"`
	EnableReasoning json.RawMessage `json:"enableReasoning"`
}

func (b llmBody) model() string {
	var s string
	if json.Unmarshal(b.Model, &s) != nil {
		return ""
	}
	return s
}

// messages keeps the elements raw; only a missing or empty list is rejected.
func (b llmBody) messages() []json.RawMessage {
	var msgs []json.RawMessage
	if json.Unmarshal(b.Messages, &msgs) != nil {
		return nil
	}
	return msgs
}

func (b llmBody) reasoning() bool {
	var on bool
	return json.Unmarshal(b.EnableReasoning, &on) == nil && on
}

// LLM handles /api/llm: one prompt in, one game payload out.
func (a *App) LLM(w http.ResponseWriter, r *http.Request) {
	req := gateway.Request{
		Method:  r.Method,
		Referer: requestReferer(r),
	}

	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, maxLLMBody)
		var body llmBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "Payload Too Large", err.Error())
				return
			}
		}
		req.Model = body.model()
		req.Messages = body.messages()
		req.EnableReasoning = body.reasoning() || a.cfg.Reasoning
	}

	res, err := a.adapter().Send(r.Context(), req)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(res.Payload)
}

// writeGatewayError maps a gateway failure onto the response contract of
// /api/llm. The game endpoints use the same shapes.
func writeGatewayError(w http.ResponseWriter, err error) {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		slog.Error("gateway failure", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error", err.Error())
		return
	}

	switch gwErr.Kind {
	case gateway.KindMethodNotAllowed:
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: gwErr.Message})
	case gateway.KindMissingCredential:
		writeError(w, http.StatusInternalServerError, gwErr.Message, hintMissingKey)
	case gateway.KindInvalidPayload:
		writeError(w, http.StatusBadRequest, gwErr.Message, hintMissingMessages)
	case gateway.KindUpstream:
		slog.Warn("provider error", "status", gwErr.StatusCode, "message", gwErr.Message, "rate_limited", gwErr.RateLimited())
		status := gwErr.StatusCode
		if status < 300 || status > 599 {
			status = http.StatusBadGateway
		}
		body := errorBody{
			Error:   "OpenRouter error",
			Details: upstreamDetails(gwErr.Body),
			Message: gwErr.Message,
		}
		if gwErr.RateLimited() {
			body.Hint = hintRateLimited
		}
		writeJSON(w, status, body)
	default:
		slog.Error("gateway transport failure", "error", gwErr.Err)
		writeError(w, http.StatusInternalServerError, "Server error", gwErr.Message)
	}
}

// upstreamDetails forwards the provider's error body: parsed when it is
// JSON, as a string otherwise.
func upstreamDetails(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return strings.TrimSpace(string(body))
}
