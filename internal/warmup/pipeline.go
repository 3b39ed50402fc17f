// Package warmup orchestrates one end-to-end trigger run: authenticate, find
// a healthy endpoint, inspect quota, and fire the eligible pools.
package warmup

import (
	"context"
	"fmt"

	"stoker/internal/codeassist"
	stokererrors "stoker/internal/errors"
	"stoker/internal/logging"
)

// DefaultWarmThreshold is the remaining-fraction gate above which a pool is
// considered idle (outside an active rolling window) and worth triggering.
// Empirically chosen; override via configuration.
const DefaultWarmThreshold = 0.995

// Authenticator exchanges the refresh credential for a short-lived token.
type Authenticator interface {
	Exchange(ctx context.Context, refreshToken string) (string, error)
}

// Gateway is the service-facing side of the pipeline, implemented by
// codeassist.Client.
type Gateway interface {
	Endpoints() []string
	Probe(ctx context.Context, token string, candidates []string) (codeassist.Endpoint, error)
	FetchQuota(ctx context.Context, token string, ep codeassist.Endpoint) ([]codeassist.QuotaPool, error)
	Trigger(ctx context.Context, token string, ep codeassist.Endpoint, pool codeassist.Pool) codeassist.TriggerResult
}

// RunOutcome is the terminal state of one pipeline run.
type RunOutcome string

const (
	RunSuccess            RunOutcome = "success"
	RunAllEndpointsFailed RunOutcome = "all_endpoints_failed"
)

// PipelineRun is the structured result of one run.
type PipelineRun struct {
	Endpoint  string
	ProjectID string
	Results   []codeassist.TriggerResult
	Outcome   RunOutcome
}

// SuccessCount tallies pools that needed no further action: triggered
// successfully or already inside an active cycle.
func (r *PipelineRun) SuccessCount() int {
	return countNoActionRequired(r.Results)
}

// Pipeline runs the warmup state machine. Exactly one run executes at a
// time by construction: the scheduler arms the next wait only after the
// current run completes.
type Pipeline struct {
	auth         Authenticator
	gateway      Gateway
	refreshToken string
	threshold    float64
	logger       logging.Logger
}

// NewPipeline assembles a pipeline. threshold <= 0 selects the default gate.
func NewPipeline(auth Authenticator, gateway Gateway, refreshToken string, threshold float64, logger logging.Logger) *Pipeline {
	if threshold <= 0 {
		threshold = DefaultWarmThreshold
	}
	return &Pipeline{
		auth:         auth,
		gateway:      gateway,
		refreshToken: refreshToken,
		threshold:    threshold,
		logger:       logging.OrNop(logger),
	}
}

// Run executes one full pipeline pass. Authentication is fresh on every call;
// nothing carries over between runs. Run-fatal failures (auth, no working
// endpoint, all endpoints exhausted) are returned as errors for the caller's
// retry layer; pool-local failures only show up inside the run's results.
func (p *Pipeline) Run(ctx context.Context) (*PipelineRun, error) {
	token, err := p.auth.Exchange(ctx, p.refreshToken)
	if err != nil {
		return nil, err
	}

	endpoints := p.gateway.Endpoints()
	anyHealthy := false

	offset := 0
	for offset < len(endpoints) {
		ep, err := p.gateway.Probe(ctx, token, endpoints[offset:])
		if err != nil {
			// Remaining candidates all failed their health checks.
			break
		}
		anyHealthy = true
		ep.Index += offset

		pools, err := p.gateway.FetchQuota(ctx, token, ep)
		if err != nil {
			p.logger.Warn("Quota fetch failed on %s, advancing: %v", ep.BaseURL, err)
			offset = ep.Index + 1
			continue
		}
		if len(pools) == 0 {
			p.logger.Warn("No classified pools on %s, advancing", ep.BaseURL)
			offset = ep.Index + 1
			continue
		}

		results := p.triggerPools(ctx, token, ep, pools)
		if countNoActionRequired(results) == 0 {
			p.logger.Warn("Every pool failed on %s, advancing", ep.BaseURL)
			offset = ep.Index + 1
			continue
		}

		run := &PipelineRun{
			Endpoint:  ep.BaseURL,
			ProjectID: ep.ProjectID,
			Results:   results,
			Outcome:   RunSuccess,
		}
		p.logger.Info("Warmup run done via %s: %s", ep.BaseURL, Summarize(run))
		return run, nil
	}

	run := &PipelineRun{Outcome: RunAllEndpointsFailed}
	if !anyHealthy {
		return run, stokererrors.ErrNoWorkingEndpoint
	}
	return run, stokererrors.ErrAllEndpointsFailed
}

// triggerPools walks the classified pools in canonical order, applying the
// eligibility gate per pool. Each pool is attempted at most once; pool-local
// failures never abort the loop.
func (p *Pipeline) triggerPools(ctx context.Context, token string, ep codeassist.Endpoint, pools []codeassist.QuotaPool) []codeassist.TriggerResult {
	results := make([]codeassist.TriggerResult, 0, len(pools))
	for _, qp := range pools {
		switch {
		case !qp.HasRemaining:
			p.logger.Info("Pool %s has no quota info, skipping", qp.Pool.ID)
			results = append(results, codeassist.TriggerResult{
				Pool:    qp.Pool.ID,
				Outcome: codeassist.OutcomeSkippedNoInfo,
			})
		case qp.Remaining < p.threshold:
			// The pool is already inside an active rolling window; a trigger
			// would spend quota for nothing. Zero network calls.
			p.logger.Info("Pool %s at %.1f%%, cycle already active", qp.Pool.ID, qp.Remaining*100)
			results = append(results, codeassist.TriggerResult{
				Pool:    qp.Pool.ID,
				Outcome: codeassist.OutcomeSkippedCycleActive,
				Message: fmt.Sprintf("remaining %.3f below threshold %.3f", qp.Remaining, p.threshold),
			})
		default:
			results = append(results, p.gateway.Trigger(ctx, token, ep, qp.Pool))
		}
	}
	return results
}

func countNoActionRequired(results []codeassist.TriggerResult) int {
	count := 0
	for _, r := range results {
		if r.Outcome == codeassist.OutcomeSuccess || r.Outcome == codeassist.OutcomeSkippedCycleActive {
			count++
		}
	}
	return count
}

// Summarize renders a run as a short human-readable line for logs and
// notifications.
func Summarize(run *PipelineRun) string {
	if run == nil {
		return "no run"
	}
	if run.Outcome == RunAllEndpointsFailed {
		return "all endpoints failed"
	}
	text := ""
	for i, r := range run.Results {
		if i > 0 {
			text += ", "
		}
		switch r.Outcome {
		case codeassist.OutcomeSuccess:
			text += fmt.Sprintf("%s triggered", r.Pool)
		case codeassist.OutcomeSkippedCycleActive:
			text += fmt.Sprintf("%s cycle active", r.Pool)
		case codeassist.OutcomeSkippedNoInfo:
			text += fmt.Sprintf("%s no quota info", r.Pool)
		case codeassist.OutcomeRateLimited:
			text += fmt.Sprintf("%s rate limited", r.Pool)
		default:
			if r.HTTPStatus != 0 {
				text += fmt.Sprintf("%s failed (%d)", r.Pool, r.HTTPStatus)
			} else {
				text += fmt.Sprintf("%s failed", r.Pool)
			}
		}
	}
	return text
}
