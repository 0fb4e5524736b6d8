// Package render drives a committed plan through its provider adapters:
// concurrent submission, sequential polling per scene with bounded backoff,
// per-scene timeouts, and partial completion as a first-class outcome.
package render

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"reelforge/internal/config"
	"reelforge/internal/provider"
	"reelforge/internal/types"
)

// Driver executes render plans. One Driver is safe for concurrent Run calls;
// all mutable state lives per run.
type Driver struct {
	reg *provider.Registry
	cfg config.RenderConfig

	// sleep is context-aware and injectable so tests run without wall time.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a driver over the adapter registry.
func New(reg *provider.Registry, cfg config.RenderConfig) *Driver {
	return &Driver{reg: reg, cfg: cfg, sleep: ctxSleep}
}

// Run submits every scene and polls each to a terminal state. Scenes are
// independent: one scene failing never aborts its siblings, and the result
// carries every per-scene status. Cancelling ctx abandons polling; jobs
// already accepted upstream are reported as unknown, not failed.
func (d *Driver) Run(ctx context.Context, plan *types.RenderPlan) *types.RenderResult {
	jobs := make([]types.RenderJob, len(plan.Scenes))

	var wg sync.WaitGroup
	for i, scene := range plan.Scenes {
		wg.Add(1)
		go func(i int, scene types.PlanScene) {
			defer wg.Done()
			jobs[i] = d.runScene(ctx, scene)
		}(i, scene)
	}
	wg.Wait()

	result := &types.RenderResult{PlanID: plan.ID, Jobs: jobs}
	for _, j := range jobs {
		switch j.State {
		case types.JobCompleted:
			result.Completed++
		case types.JobFailed:
			result.Failed++
		case types.JobUnknown:
			result.Unknown++
		}
	}
	log.Info().
		Str("plan_id", plan.ID).
		Int("completed", result.Completed).
		Int("failed", result.Failed).
		Int("unknown", result.Unknown).
		Msg("render plan finished")
	return result
}

func (d *Driver) runScene(ctx context.Context, scene types.PlanScene) types.RenderJob {
	job := types.RenderJob{
		ScenePosition: scene.Position,
		Provider:      scene.Provider,
		State:         types.JobQueued,
	}

	adapter, err := d.reg.Get(scene.Provider)
	if err != nil {
		job.State = types.JobFailed
		job.Error = err.Error()
		return job
	}

	sceneCtx, cancel := context.WithTimeout(ctx, d.cfg.SceneTimeout())
	defer cancel()
	start := time.Now()

	sub, ok := d.submit(sceneCtx, adapter, scene, &job)
	if !ok {
		jobsTerminal.WithLabelValues(scene.Provider, string(job.State)).Inc()
		return job
	}

	job.JobID = sub.JobID
	advance(&job, sub.State)
	if sub.State.Terminal() {
		job.OutputRef = sub.OutputRef
		if sub.State == types.JobCompleted {
			job.Progress = 100
		}
		finish(&job, scene.Provider, start)
		return job
	}

	d.poll(sceneCtx, adapter, &job)
	finish(&job, scene.Provider, start)
	return job
}

// submit tries the adapter's submit call, retrying transient upstream errors.
func (d *Driver) submit(ctx context.Context, adapter provider.Adapter, scene types.PlanScene, job *types.RenderJob) (provider.Submission, bool) {
	req := provider.SubmitRequest{
		Prompt:      scene.Prompt,
		DurationSec: scene.DurationSec,
		AspectRatio: scene.AspectRatio,
		Model:       scene.Model,
	}

	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		job.Attempts = attempt
		sub, err := adapter.Submit(ctx, req)
		if err == nil {
			submissionsTotal.WithLabelValues(scene.Provider, "accepted").Inc()
			return sub, true
		}
		lastErr = err
		if !errors.Is(err, provider.ErrTransient) {
			break
		}
		log.Warn().Err(err).Str("provider", scene.Provider).Int("scene", scene.Position).Int("attempt", attempt).Msg("submission failed, retrying")
		if attempt < d.cfg.MaxAttempts {
			if err := d.sleep(ctx, d.backoff(attempt)); err != nil {
				break
			}
		}
	}

	// Nothing was accepted upstream, so this is a plain failure, not unknown.
	submissionsTotal.WithLabelValues(scene.Provider, "rejected").Inc()
	job.State = types.JobFailed
	job.Error = lastErr.Error()
	return provider.Submission{}, false
}

// poll drives one accepted job to a terminal state or abandonment.
func (d *Driver) poll(ctx context.Context, adapter provider.Adapter, job *types.RenderJob) {
	interval := d.cfg.PollInterval()
	transientFailures := 0

	for {
		if err := d.sleep(ctx, interval); err != nil {
			abandon(job, "polling abandoned: "+err.Error())
			return
		}

		res, err := adapter.Poll(ctx, job.JobID)
		pollsTotal.WithLabelValues(job.Provider).Inc()
		if err != nil {
			if ctx.Err() != nil {
				abandon(job, "polling abandoned: "+ctx.Err().Error())
				return
			}
			if errors.Is(err, provider.ErrTransient) {
				transientFailures++
				if transientFailures >= d.cfg.MaxAttempts {
					// The upstream job may still be running; we just lost
					// sight of it. That is unknown, not failed.
					abandon(job, "poll retries exhausted: "+err.Error())
					return
				}
				interval = d.nextInterval(interval)
				continue
			}
			job.State = types.JobFailed
			job.Error = err.Error()
			return
		}
		transientFailures = 0

		advance(job, res.State)
		if res.Progress > job.Progress {
			job.Progress = res.Progress
		}

		switch job.State {
		case types.JobCompleted:
			job.OutputRef = res.OutputRef
			job.RequiresAuthFetch = res.RequiresAuthFetch
			job.Progress = 100
			return
		case types.JobFailed:
			job.Error = res.Message
			return
		}

		interval = d.nextInterval(interval)
	}
}

// advance applies a state transition only when it is legal and monotonic.
func advance(job *types.RenderJob, next types.JobState) {
	if job.State == next || !job.State.CanTransition(next) {
		return
	}
	job.State = next
}

func abandon(job *types.RenderJob, reason string) {
	if job.State.Terminal() {
		return
	}
	job.State = types.JobUnknown
	job.Error = reason
}

func finish(job *types.RenderJob, providerName string, start time.Time) {
	jobsTerminal.WithLabelValues(providerName, string(job.State)).Inc()
	jobDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
}

// backoff grows linearly with the submit attempt number, teacher-style.
func (d *Driver) backoff(attempt int) time.Duration {
	return time.Duration(attempt) * d.cfg.PollInterval()
}

// nextInterval grows the poll interval by half, capped at the configured max.
func (d *Driver) nextInterval(cur time.Duration) time.Duration {
	next := cur + cur/2
	if max := d.cfg.PollMaxInterval(); next > max {
		return max
	}
	return next
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
