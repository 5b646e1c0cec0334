package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/brightpath/attempt-service/internal/models"
)

// Gateway is the grading backend collaborator. The session engine only ever
// talks to the backend through this interface; HTTP framing is an
// implementation detail of HTTPGateway.
type Gateway interface {
	StartAttempt(ctx context.Context, assessmentID, learnerID string) (*models.StartAttemptPayload, error)
	SaveAnswer(ctx context.Context, req models.SaveAnswerRequest) error
	SubmitAttempt(ctx context.Context, req models.SubmitAttemptRequest) error
	FetchReview(ctx context.Context, attemptID string) (*models.ReviewPayload, error)
}

// HTTPGateway talks to the grading backend over HTTP.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	token   string
}

type HTTPGatewayConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func NewHTTPGateway(cfg HTTPGatewayConfig) *HTTPGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPGateway{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		token:   cfg.Token,
	}
}

func (g *HTTPGateway) StartAttempt(ctx context.Context, assessmentID, learnerID string) (*models.StartAttemptPayload, error) {
	body := map[string]string{"learner_id": learnerID}
	path := fmt.Sprintf("/api/v1/assessments/%s/attempts/start", url.PathEscape(assessmentID))

	var payload models.StartAttemptPayload
	if err := g.do(ctx, http.MethodPost, path, body, &payload); err != nil {
		return nil, &GatewayError{Operation: "start attempt", Err: err}
	}
	if payload.Status == "" {
		payload.Status = models.AttemptStatusInProgress
	}
	return &payload, nil
}

func (g *HTTPGateway) SaveAnswer(ctx context.Context, req models.SaveAnswerRequest) error {
	path := fmt.Sprintf("/api/v1/attempts/%s/answers/%s",
		url.PathEscape(req.AttemptID), url.PathEscape(req.QuestionID))
	body := map[string]json.RawMessage{"value": req.Value}

	if err := g.do(ctx, http.MethodPut, path, body, nil); err != nil {
		return &GatewayError{Operation: "save answer", Err: err}
	}
	return nil
}

func (g *HTTPGateway) SubmitAttempt(ctx context.Context, req models.SubmitAttemptRequest) error {
	path := fmt.Sprintf("/api/v1/attempts/%s/submit", url.PathEscape(req.AttemptID))
	body := map[string]string{"end_reason": string(req.EndReason)}

	if err := g.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return &GatewayError{Operation: "submit attempt", Err: err}
	}
	return nil
}

func (g *HTTPGateway) FetchReview(ctx context.Context, attemptID string) (*models.ReviewPayload, error) {
	path := fmt.Sprintf("/api/v1/attempts/%s/review", url.PathEscape(attemptID))

	var payload models.ReviewPayload
	if err := g.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, &GatewayError{Operation: "fetch review", Err: err}
	}
	return &payload, nil
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrAttemptNotFound
	}
	if resp.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, bytes.TrimSpace(message))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
