// Package gateway bridges built prompts to the model provider. An Adapter
// validates a request, performs exactly one provider call and turns the
// reply into a game payload, falling back to the raw text when the reply
// holds no JSON object. It never retries.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"lifesim/internal/ai"
	"lifesim/internal/models"
	"lifesim/internal/observe"
)

// EmptyContentEvent is the narrative used when the model sent nothing.
const EmptyContentEvent = "Model returned empty content."

// Config is the process-level input of an Adapter
type Config struct {
	APIKey       string
	DefaultModel string
	URL          string
	Title        string
	// Referer is used when a request carries none of its own.
	Referer string
	HTTP    *http.Client
	Metrics *observe.Metrics
}

// Request is one gateway invocation
type Request struct {
	Method          string
	Messages        []json.RawMessage
	Model           string
	EnableReasoning bool
	Referer         string
}

// Result is a successful gateway call
type Result struct {
	// Payload is the extracted object verbatim, or {"event": ...} when
	// Fallback is set.
	Payload  json.RawMessage
	Fallback bool
	Model    string
	Content  string
}

// Response decodes the payload into a GameResponse.
func (r *Result) Response() (models.GameResponse, error) {
	return models.ParseGameResponse(r.Payload)
}

// Adapter is short-lived; build one per request with New.
type Adapter struct {
	cfg Config
}

func New(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

// Send validates req, calls the provider once and extracts the payload.
// Every failure is an *Error.
func (a *Adapter) Send(ctx context.Context, req Request) (*Result, error) {
	res, err := a.send(ctx, req)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = string(KindOf(err))
	case res.Fallback:
		outcome = "fallback"
	}
	a.cfg.Metrics.RecordGateway(ctx, outcome)
	return res, err
}

func (a *Adapter) send(ctx context.Context, req Request) (*Result, error) {
	if req.Method != http.MethodPost {
		return nil, &Error{Kind: KindMethodNotAllowed, Message: "Method Not Allowed"}
	}
	if a.cfg.APIKey == "" {
		return nil, &Error{Kind: KindMissingCredential, Message: "Missing OPENROUTER_API_KEY on server"}
	}
	if len(req.Messages) == 0 {
		return nil, &Error{Kind: KindInvalidPayload, Message: "Missing messages[]"}
	}

	model := ai.SelectModel(req.Model, a.cfg.DefaultModel)
	referer := req.Referer
	if referer == "" {
		referer = a.cfg.Referer
	}
	client := &ai.Client{
		APIKey:  a.cfg.APIKey,
		URL:     a.cfg.URL,
		Title:   a.cfg.Title,
		Referer: referer,
		HTTP:    a.cfg.HTTP,
	}
	chatReq := ai.ChatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: ai.Temperature,
	}
	if req.EnableReasoning {
		chatReq.Reasoning = &ai.Reasoning{Enabled: true}
	}

	ctx, span := observe.StartSpan(ctx, "gateway.Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("model", model),
		attribute.Int("messages", len(req.Messages)),
	)

	start := time.Now()
	resp, err := client.GenerateText(ctx, chatReq)
	a.cfg.Metrics.RecordUpstream(ctx, time.Since(start).Seconds(), model)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if apiErr, ok := ai.IsAPIError(err); ok {
			msg := apiErr.ProviderMessage()
			if msg == "" {
				msg = "OpenRouter API request failed"
			}
			return nil, &Error{
				Kind:       KindUpstream,
				StatusCode: apiErr.StatusCode,
				Body:       apiErr.Body,
				Message:    msg,
				Err:        err,
			}
		}
		return nil, &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}

	content := resp.Content()
	if obj, ok := ai.Extract(content); ok {
		return &Result{Payload: obj, Model: model, Content: content}, nil
	}

	event := content
	if event == "" {
		event = EmptyContentEvent
	}
	payload, err := json.Marshal(map[string]string{"event": event})
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	span.SetAttributes(attribute.Bool("fallback", true))
	return &Result{Payload: payload, Fallback: true, Model: model, Content: content}, nil
}
