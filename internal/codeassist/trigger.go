package codeassist

import (
	"context"
	"fmt"
	"net/http"

	"stoker/internal/httpclient"
)

// Outcome classifies one pool's trigger attempt.
type Outcome string

const (
	// OutcomeSuccess: the trigger call was accepted and the pool's rolling
	// window is running.
	OutcomeSuccess Outcome = "success"
	// OutcomeSkippedCycleActive: the pool is already inside an active window;
	// no network call was made. Counts as "no action required" success.
	OutcomeSkippedCycleActive Outcome = "skipped_cycle_active"
	// OutcomeSkippedNoInfo: the catalog carried no quota info for the pool;
	// no network call was made.
	OutcomeSkippedNoInfo Outcome = "skipped_no_info"
	// OutcomeRateLimited: the trigger call hit HTTP 429.
	OutcomeRateLimited Outcome = "rate_limited"
	// OutcomeFailed: the trigger call failed with any other non-2xx status or
	// a transport error.
	OutcomeFailed Outcome = "failed"
)

// TriggerResult is the outcome of one pool within a pipeline run.
type TriggerResult struct {
	Pool       string
	Outcome    Outcome
	HTTPStatus int
	Message    string
}

type generateRequest struct {
	Project     string        `json:"project"`
	RequestID   string        `json:"requestId"`
	Request     generateInner `json:"request"`
	Model       string        `json:"model"`
	UserAgent   string        `json:"userAgent"`
	RequestType string        `json:"requestType"`
}

type generateInner struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateContent struct {
	Role  string         `json:"role"`
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Trigger issues the minimal chargeable request against the pool's
// representative model. The output cap is one token: the point is to start
// the rolling window, not to generate anything. The status code is the
// primary signal; 429 and other failures are pool-local and never abort the
// caller's pool loop.
func (c *Client) Trigger(ctx context.Context, token string, ep Endpoint, pool Pool) TriggerResult {
	payload := generateRequest{
		Project:   ep.ProjectID,
		RequestID: c.sessionKey(pool, ep.ProjectID),
		Request: generateInner{
			Contents: []generateContent{
				{Role: "user", Parts: []generatePart{{Text: "warm"}}},
			},
			GenerationConfig: generationConfig{Temperature: 0, MaxOutputTokens: 1},
		},
		Model:       pool.Representative,
		UserAgent:   "stoker",
		RequestType: "warmup",
	}

	resp, err := c.postJSON(ctx, c.triggerClient, ep.BaseURL+generateContentPath, token, payload)
	if err != nil {
		c.logger.Warn("Trigger %s via %s failed: %v", pool.ID, ep.BaseURL, err)
		return TriggerResult{Pool: pool.ID, Outcome: OutcomeFailed, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain (bounded) so the connection can be reused; the body content is
	// irrelevant to the outcome.
	_, _ = httpclient.ReadAllWithLimit(resp.Body, maxResponseBytes)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.logger.Info("Triggered pool %s (%s) via %s", pool.ID, pool.Representative, ep.BaseURL)
		return TriggerResult{Pool: pool.ID, Outcome: OutcomeSuccess, HTTPStatus: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("Pool %s rate limited via %s", pool.ID, ep.BaseURL)
		return TriggerResult{Pool: pool.ID, Outcome: OutcomeRateLimited, HTTPStatus: resp.StatusCode}
	default:
		c.logger.Warn("Pool %s trigger failed via %s: status %d", pool.ID, ep.BaseURL, resp.StatusCode)
		return TriggerResult{
			Pool:       pool.ID,
			Outcome:    OutcomeFailed,
			HTTPStatus: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}
}

// sessionKey builds the correlation id for one trigger call. It is unique to
// {process instance, pool, project} and stable for the process lifetime.
func (c *Client) sessionKey(pool Pool, projectID string) string {
	return fmt.Sprintf("warm-%s-%s-%s", c.sessionID, pool.ID, projectID)
}
