package codeassist

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	stokererrors "stoker/internal/errors"
	"stoker/internal/httpclient"
)

type quotaRequest struct {
	Project string `json:"project"`
}

// modelEntry is one raw catalog entry. Quota info is optional; models without
// it are classified but reported as unknown.
type modelEntry struct {
	QuotaInfo *quotaInfo `json:"quotaInfo"`
}

type quotaInfo struct {
	RemainingFraction *float64 `json:"remainingFraction"`
	ResetTime         string   `json:"resetTime"`
}

type quotaResponse struct {
	Models map[string]modelEntry `json:"models"`
}

// FetchQuota retrieves the model catalog from one endpoint and classifies it
// into canonical pools. Pools come back in the fixed canonical order, never
// in catalog discovery order; pools with no matching catalog entry are
// omitted. A non-200 response or malformed body is a QuotaFetchError, which
// the pipeline treats as endpoint-local.
func (c *Client) FetchQuota(ctx context.Context, token string, ep Endpoint) ([]QuotaPool, error) {
	resp, err := c.postJSON(ctx, c.probeClient, ep.BaseURL+fetchAvailableModelsPath, token, quotaRequest{Project: ep.ProjectID})
	if err != nil {
		return nil, &stokererrors.QuotaFetchError{Endpoint: ep.BaseURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := httpclient.ReadAllWithLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, &stokererrors.QuotaFetchError{Endpoint: ep.BaseURL, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &stokererrors.QuotaFetchError{Endpoint: ep.BaseURL, StatusCode: resp.StatusCode}
	}

	var parsed quotaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &stokererrors.QuotaFetchError{Endpoint: ep.BaseURL, Err: err}
	}

	classified := ClassifyCatalog(parsed.Models)
	c.logger.Debug("Classified %d pools from %d catalog entries on %s", len(classified), len(parsed.Models), ep.BaseURL)
	return classified, nil
}

// ClassifyCatalog maps a raw catalog onto canonical pools. The first raw
// entry that matches a pool determines that pool's quota: all models in a
// pool share one quota, so later matches for the same pool are ignored. The
// catalog is a JSON map, so entries are visited in sorted id order to keep
// the winner deterministic.
func ClassifyCatalog(models map[string]modelEntry) []QuotaPool {
	ids := make([]string, 0, len(models))
	for id := range models {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	byPool := make(map[string]QuotaPool, len(pools))
	for _, id := range ids {
		pool, ok := classify(id)
		if !ok {
			continue
		}
		if _, seen := byPool[pool.ID]; seen {
			continue
		}
		byPool[pool.ID] = buildQuotaPool(pool, models[id])
	}

	result := make([]QuotaPool, 0, len(byPool))
	for _, pool := range pools {
		if qp, ok := byPool[pool.ID]; ok {
			result = append(result, qp)
		}
	}
	return result
}

func buildQuotaPool(pool Pool, entry modelEntry) QuotaPool {
	qp := QuotaPool{Pool: pool}
	if entry.QuotaInfo == nil {
		return qp
	}
	if entry.QuotaInfo.RemainingFraction != nil {
		qp.Remaining = *entry.QuotaInfo.RemainingFraction
		qp.HasRemaining = true
	}
	if entry.QuotaInfo.ResetTime != "" {
		if reset, err := time.Parse(time.RFC3339, entry.QuotaInfo.ResetTime); err == nil {
			qp.ResetTime = &reset
		}
	}
	return qp
}
