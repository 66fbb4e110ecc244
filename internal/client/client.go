// Package client is a typed HTTP client for the competition API. Error
// bodies are turned back into the domain error kinds, so callers can use
// errors.Is(err, model.ErrInvalidPhase) against a remote competition.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/dancefloor/internal/adapters/http/api"
	"github.com/okian/dancefloor/internal/domain/competition"
	"github.com/okian/dancefloor/internal/domain/ledger"
	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/internal/domain/ranking"
)

const defaultTimeout = 10 * time.Second

// Error is a non-2xx API response.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Unwrap returns the domain kind matching Code.
func (e *Error) Unwrap() error {
	switch e.Code {
	case api.CodeValidation:
		return model.ErrValidation
	case api.CodeNotFound:
		return model.ErrNotFound
	case api.CodeInvalidPhase:
		return model.ErrInvalidPhase
	case api.CodeStorageUnavailable:
		return model.ErrStorageUnavailable
	case api.CodeRateLimited:
		return api.ErrRateLimited
	default:
		return nil
	}
}

// Client talks to one competition server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL, e.g. http://localhost:9080.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GenerateHeats calls POST /competition/heats.
func (c *Client) GenerateHeats(ctx context.Context, category string) (competition.HeatsResult, error) {
	var out competition.HeatsResult
	err := c.do(ctx, http.MethodPost, "/competition/heats", map[string]string{"category": category}, &out)
	return out, err
}

// SetActiveHeat calls PUT /competition/heats/active.
func (c *Client) SetActiveHeat(ctx context.Context, heatID string) (competition.ActiveHeatResult, error) {
	var out competition.ActiveHeatResult
	err := c.do(ctx, http.MethodPut, "/competition/heats/active", map[string]string{"heatId": heatID}, &out)
	return out, err
}

// AdvanceToSemifinal calls POST /competition/semifinal.
func (c *Client) AdvanceToSemifinal(ctx context.Context, category string) (competition.SemifinalResult, error) {
	var out competition.SemifinalResult
	err := c.do(ctx, http.MethodPost, "/competition/semifinal", map[string]string{"category": category}, &out)
	return out, err
}

// AdvanceToFinal calls POST /competition/final.
func (c *Client) AdvanceToFinal(ctx context.Context) (competition.FinalResult, error) {
	var out competition.FinalResult
	err := c.do(ctx, http.MethodPost, "/competition/final", nil, &out)
	return out, err
}

// DetermineWinners calls POST /competition/winners.
func (c *Client) DetermineWinners(ctx context.Context) (competition.WinnersResult, error) {
	var out competition.WinnersResult
	err := c.do(ctx, http.MethodPost, "/competition/winners", nil, &out)
	return out, err
}

// Reset calls POST /competition/reset.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/competition/reset", nil, nil)
}

// SubmitScores calls POST /scores.
func (c *Client) SubmitScores(ctx context.Context, sub ledger.Submission) (competition.SubmitResult, error) {
	var out competition.SubmitResult
	err := c.do(ctx, http.MethodPost, "/scores", sub, &out)
	return out, err
}

// Snapshot calls GET /competition.
func (c *Client) Snapshot(ctx context.Context) (competition.View, error) {
	var out competition.View
	err := c.do(ctx, http.MethodGet, "/competition", nil, &out)
	return out, err
}

// History calls GET /competition/history.
func (c *Client) History(ctx context.Context) ([]model.Snapshot, error) {
	var out []model.Snapshot
	err := c.do(ctx, http.MethodGet, "/competition/history", nil, &out)
	return out, err
}

// Rankings calls GET /competition/rankings.
func (c *Client) Rankings(ctx context.Context, phase model.Phase, heatID string) (ranking.RoleStandings, error) {
	q := url.Values{"phase": {string(phase)}}
	if heatID != "" {
		q.Set("heatId", heatID)
	}
	var out ranking.RoleStandings
	err := c.do(ctx, http.MethodGet, "/competition/rankings?"+q.Encode(), nil, &out)
	return out, err
}

// ImportRoster calls POST /roster.
func (c *Client) ImportRoster(ctx context.Context, ps []model.Participant, js []model.Judge) (competition.RosterResult, error) {
	body := struct {
		Participants []model.Participant `json:"participants"`
		Judges       []model.Judge       `json:"judges"`
	}{ps, js}
	var out competition.RosterResult
	err := c.do(ctx, http.MethodPost, "/roster", body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var eb struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &eb) == nil && eb.Code != "" {
			apiErr.Code, apiErr.Message = eb.Code, eb.Message
		} else {
			apiErr.Code = api.CodeInternal
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
