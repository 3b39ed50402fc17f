package codeassist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	stokererrors "stoker/internal/errors"
	"stoker/internal/httpclient"
)

// probeRequest is the minimal client metadata the health endpoint expects.
type probeRequest struct {
	Metadata probeMetadata `json:"metadata"`
}

type probeMetadata struct {
	IDEType    string `json:"ideType"`
	Platform   string `json:"platform"`
	PluginType string `json:"pluginType"`
}

// Probe walks the candidate endpoints in order and returns the first healthy
// one along with its project id. Healthy means HTTP 200 with a well-formed
// JSON body; anything else advances to the next candidate. Exhausting the
// list returns ErrNoWorkingEndpoint.
func (c *Client) Probe(ctx context.Context, token string, candidates []string) (Endpoint, error) {
	for i, base := range candidates {
		projectID, err := c.probeOne(ctx, token, base)
		if err != nil {
			c.logger.Warn("Endpoint %s failed health check: %v", base, err)
			continue
		}
		c.logger.Info("Endpoint %s healthy (project %s)", base, projectID)
		return Endpoint{BaseURL: base, ProjectID: projectID, Index: i}, nil
	}
	return Endpoint{}, stokererrors.ErrNoWorkingEndpoint
}

func (c *Client) probeOne(ctx context.Context, token, base string) (string, error) {
	payload := probeRequest{
		Metadata: probeMetadata{
			IDEType:    "IDE_UNSPECIFIED",
			Platform:   "PLATFORM_UNSPECIFIED",
			PluginType: "GEMINI",
		},
	}

	resp, err := c.postJSON(ctx, c.probeClient, base+loadCodeAssistPath, token, payload)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := httpclient.ReadAllWithLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{Status: resp.StatusCode}
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	return extractProjectID(parsed), nil
}

// extractProjectID pulls the companion project out of the health response.
// The field is optional and has shipped both as a plain string and as an
// object with an id; absence falls back to the default project.
func extractProjectID(parsed map[string]json.RawMessage) string {
	raw, ok := parsed["cloudaicompanionProject"]
	if !ok {
		return defaultProjectID
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil && asString != "" {
		return asString
	}

	var asObject struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil && asObject.ID != "" {
		return asObject.ID
	}

	return defaultProjectID
}

// statusError reports a non-200 health or quota response.
type statusError struct {
	Status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}
