// File: internal/usecase/analysis_uc.go
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/domain"
	"jdcrawler-dashboard/internal/domain/model"
	"jdcrawler-dashboard/internal/infra/logging"
	"jdcrawler-dashboard/internal/infra/metrics"
)

type AnalysisOutcome string

const (
	OutcomeCompleted     AnalysisOutcome = "completed"
	OutcomeFiltered      AnalysisOutcome = "filtered"
	OutcomeFailed        AnalysisOutcome = "failed"
	OutcomeNotObserved   AnalysisOutcome = "not_observed"
	OutcomeTriggerFailed AnalysisOutcome = "trigger_failed"
)

func outcomeOf(s model.AnalysisState) AnalysisOutcome {
	switch s {
	case model.AnalysisCompleted:
		return OutcomeCompleted
	case model.AnalysisFiltered:
		return OutcomeFiltered
	case model.AnalysisFailed:
		return OutcomeFailed
	}
	return OutcomeNotObserved
}

type AnalysisReport struct {
	Outcome  AnalysisOutcome    `json:"outcome"`
	View     model.AnalysisView `json:"view"`
	Attempts int                `json:"attempts"`
}

// AnalysisTracker drives a job's analysis from AVAILABLE to a terminal state:
// it guards the trigger, sends it, then rechecks the job a bounded number of
// times until the backend reports a result.
type AnalysisTracker struct {
	reader   *QueryService
	mut      MutationUseCase
	interval time.Duration
	max      int
	wait     func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	pending map[int64]bool
	last    map[int64]AnalysisOutcome

	log *zerolog.Logger
}

func NewAnalysisTracker(reader *QueryService, mut MutationUseCase, interval time.Duration, maxRechecks int, logger *zerolog.Logger) *AnalysisTracker {
	if logger == nil {
		logger = logging.Nop()
	}
	if maxRechecks <= 0 {
		maxRechecks = 10
	}
	l := logger.With().Str("component", "AnalysisTracker").Logger()
	return &AnalysisTracker{
		reader:   reader,
		mut:      mut,
		interval: interval,
		max:      maxRechecks,
		wait:     sleepCtx,
		pending:  make(map[int64]bool),
		last:     make(map[int64]AnalysisOutcome),
		log:      &l,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// View reports the job's analysis state as a screen may show it.
func (t *AnalysisTracker) View(ctx context.Context, jobID int64) (model.AnalysisView, error) {
	r := t.reader.Job(ctx, jobID)
	if !r.HasData {
		if r.Err != nil {
			return model.AnalysisView{}, r.Err
		}
		return model.AnalysisView{}, ctx.Err()
	}
	return t.viewOf(r.Data), nil
}

func (t *AnalysisTracker) viewOf(j *model.Job) model.AnalysisView {
	state := model.AnalysisStateOf(j)
	t.mu.Lock()
	pending := t.pending[j.ID]
	last := t.last[j.ID]
	t.mu.Unlock()

	if pending {
		state = model.AnalysisPending
	}
	v := model.NewAnalysisView(j, state)
	if !pending && last == OutcomeNotObserved && !state.Terminal() {
		v.NotObserved = true
	}
	if pending {
		v.CanTrigger = false
	}
	return v
}

// Trigger checks the guards against the cached job and sends the trigger.
// A job with nothing to analyze, or one already pending, never reaches the network.
func (t *AnalysisTracker) Trigger(ctx context.Context, jobID int64) error {
	r := t.reader.Job(ctx, jobID)
	if !r.HasData {
		if r.Err != nil {
			return r.Err
		}
		return ctx.Err()
	}
	job := r.Data

	from := model.AnalysisStateOf(job)
	switch {
	case from == model.AnalysisAbsent:
		return fmt.Errorf("job %d: %w", jobID, domain.ErrAnalysisUnavailable)
	case from == model.AnalysisPending:
		return fmt.Errorf("job %d: %w", jobID, domain.ErrAnalysisInFlight)
	case from == model.AnalysisFailed:
		// retry goes back through AVAILABLE
		from = model.AnalysisAvailable
	}
	if !model.IsAnalysisTransitionAllowed(from, model.AnalysisPending) {
		return fmt.Errorf("job %d: %s -> %s: %w", jobID, from, model.AnalysisPending, domain.ErrAnalysisTransition)
	}

	t.mu.Lock()
	if t.pending[jobID] {
		t.mu.Unlock()
		return fmt.Errorf("job %d: %w", jobID, domain.ErrAnalysisInFlight)
	}
	t.pending[jobID] = true
	delete(t.last, jobID)
	t.mu.Unlock()

	if _, err := t.mut.TriggerAnalysis(ctx, jobID); err != nil {
		t.finish(jobID, OutcomeTriggerFailed)
		return err
	}
	logging.With(ctx, t.log).Info().Int64("job_id", jobID).Msg("analysis triggered")
	return nil
}

// Await rechecks the job until it reports a terminal status or the recheck
// budget runs out. The latter is reported as OutcomeNotObserved, not as failure.
func (t *AnalysisTracker) Await(ctx context.Context, jobID int64) AnalysisReport {
	var (
		job      *model.Job
		attempts int
	)
	for attempts < t.max {
		if err := t.wait(ctx, t.interval); err != nil {
			break
		}
		attempts++
		r := t.reader.RefetchJob(ctx, jobID)
		if !r.HasData {
			continue
		}
		job = r.Data
		if st := model.AnalysisStateOf(job); st.Terminal() || st == model.AnalysisFailed {
			outcome := outcomeOf(st)
			t.finish(jobID, outcome)
			return AnalysisReport{Outcome: outcome, View: t.viewOf(job), Attempts: attempts}
		}
	}

	t.finish(jobID, OutcomeNotObserved)
	t.log.Warn().Int64("job_id", jobID).Int("attempts", attempts).Msg("analysis result not observed")
	rep := AnalysisReport{Outcome: OutcomeNotObserved, Attempts: attempts}
	if job != nil {
		rep.View = t.viewOf(job)
	} else {
		rep.View = model.AnalysisView{JobID: jobID, State: model.AnalysisPending, NotObserved: true}
	}
	return rep
}

// Run is Trigger followed by Await.
func (t *AnalysisTracker) Run(ctx context.Context, jobID int64) (AnalysisReport, error) {
	if err := t.Trigger(ctx, jobID); err != nil {
		return AnalysisReport{}, err
	}
	return t.Await(ctx, jobID), nil
}

func (t *AnalysisTracker) finish(jobID int64, outcome AnalysisOutcome) {
	t.mu.Lock()
	delete(t.pending, jobID)
	t.last[jobID] = outcome
	t.mu.Unlock()
	metrics.IncAnalysisOutcome(string(outcome))
}

// Pending reports whether a trigger for the job is awaiting its result.
func (t *AnalysisTracker) Pending(jobID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending[jobID]
}
