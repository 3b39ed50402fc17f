// Package codeassist speaks the Cloud Code private API: endpoint health
// checks, the per-model quota catalog, and the minimal generateContent call
// used to start a quota window.
package codeassist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/segmentio/ksuid"

	"stoker/internal/httpclient"
	"stoker/internal/logging"
)

const (
	loadCodeAssistPath       = "/v1internal:loadCodeAssist"
	fetchAvailableModelsPath = "/v1internal:fetchAvailableModels"
	generateContentPath      = "/v1internal:generateContent"

	// defaultProjectID is used when a healthy endpoint does not report a
	// companion project of its own.
	defaultProjectID = "default"

	maxResponseBytes = 1 << 20
)

// DefaultEndpoints is the fixed, ordered candidate list. There is no dynamic
// discovery; failover walks this list front to back.
func DefaultEndpoints() []string {
	return []string{
		"https://cloudcode-pa.googleapis.com",
		"https://autopush-cloudcode-pa.sandbox.googleapis.com",
		"https://staging-cloudcode-pa.sandbox.googleapis.com",
	}
}

// Endpoint is a healthy service endpoint plus the project it resolved.
// Index is the endpoint's position within the candidate slice it was probed
// from, so callers can resume failover past it.
type Endpoint struct {
	BaseURL   string
	ProjectID string
	Index     int
}

// Config configures a Client.
type Config struct {
	Endpoints      []string
	ProbeTimeout   time.Duration // health check and quota fetch
	TriggerTimeout time.Duration // generative trigger call
	Logger         logging.Logger
}

// Client is a stateless HTTP client for the Cloud Code API. The session id is
// generated once per process so trigger calls from one run are attributable
// without colliding across concurrent invocations of the tool.
type Client struct {
	endpoints     []string
	probeClient   *http.Client
	triggerClient *http.Client
	logger        logging.Logger
	sessionID     string
}

// NewClient creates a Client with bounded per-call timeouts.
func NewClient(cfg Config) *Client {
	endpoints := cfg.Endpoints
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints()
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.TriggerTimeout <= 0 {
		cfg.TriggerTimeout = 45 * time.Second
	}
	return &Client{
		endpoints:     append([]string(nil), endpoints...),
		probeClient:   httpclient.New(cfg.ProbeTimeout),
		triggerClient: httpclient.New(cfg.TriggerTimeout),
		logger:        logging.OrNop(cfg.Logger),
		sessionID:     ksuid.New().String(),
	}
}

// Endpoints returns the candidate list in priority order.
func (c *Client) Endpoints() []string {
	return append([]string(nil), c.endpoints...)
}

// postJSON issues a bearer-authenticated JSON POST and returns the response.
// The caller owns closing the body.
func (c *Client) postJSON(ctx context.Context, client *http.Client, url, token string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	return client.Do(req)
}
