// Analysis lifecycle of a job's AI suitability score.
//
// Valid state graph:
//
//	ABSENT (no description, nothing to analyze)
//
//	AVAILABLE ──► PENDING ──► COMPLETED
//	    ▲            ├──────► FILTERED
//	    │            └──────► FAILED
//	    └────────────────────────┘ (retry)
//
// COMPLETED and FILTERED are terminal.
package model

import "fmt"

type AnalysisState string

const (
	AnalysisAbsent    AnalysisState = "absent"
	AnalysisAvailable AnalysisState = "available"
	AnalysisPending   AnalysisState = "pending"
	AnalysisCompleted AnalysisState = "completed"
	AnalysisFiltered  AnalysisState = "filtered"
	AnalysisFailed    AnalysisState = "failed"
)

var validAnalysisTransitions = map[AnalysisState][]AnalysisState{
	AnalysisAvailable: {AnalysisPending},
	AnalysisPending:   {AnalysisCompleted, AnalysisFiltered, AnalysisFailed},
	AnalysisFailed:    {AnalysisAvailable},
	// ABSENT has no outgoing transitions; COMPLETED and FILTERED are terminal
}

func ParseAnalysisState(s string) (AnalysisState, error) {
	st := AnalysisState(s)
	switch st {
	case AnalysisAbsent, AnalysisAvailable, AnalysisPending, AnalysisCompleted, AnalysisFiltered, AnalysisFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown analysis state %q", s)
}

// IsAnalysisTransitionAllowed returns true when moving from → to is permitted.
func IsAnalysisTransitionAllowed(from, to AnalysisState) bool {
	for _, s := range validAnalysisTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s AnalysisState) Terminal() bool {
	return s == AnalysisCompleted || s == AnalysisFiltered
}

// AnalysisStateOf derives the state from what the server reports for the job.
func AnalysisStateOf(j *Job) AnalysisState {
	switch j.AIStatus {
	case AIStatusPending:
		return AnalysisPending
	case AIStatusCompleted:
		return AnalysisCompleted
	case AIStatusFiltered:
		return AnalysisFiltered
	case AIStatusFailed:
		return AnalysisFailed
	}
	if j.CanAnalyze() {
		return AnalysisAvailable
	}
	return AnalysisAbsent
}

// AnalysisView is what a screen may show. Score is nil outside COMPLETED.
type AnalysisView struct {
	JobID      int64         `json:"job_id"`
	State      AnalysisState `json:"state"`
	Score      *int          `json:"score,omitempty"`
	Summary    string        `json:"summary,omitempty"`
	CanTrigger bool          `json:"can_trigger"`
	// NotObserved is set when rechecks ran out before the backend reported a result.
	NotObserved bool   `json:"not_observed,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}

// NewAnalysisView builds the view for a given state, copying score and summary
// only where the state allows them.
func NewAnalysisView(j *Job, state AnalysisState) AnalysisView {
	v := AnalysisView{JobID: j.ID, State: state}
	if state == AnalysisCompleted {
		if s, ok := j.Score(); ok {
			v.Score = &s
		}
	}
	if (state == AnalysisCompleted || state == AnalysisFiltered) && j.AISummary != nil {
		v.Summary = *j.AISummary
	}
	v.CanTrigger = state == AnalysisAvailable || state == AnalysisFailed
	return v
}

// AnalysisResult is the optional payload returned by the analysis trigger.
type AnalysisResult struct {
	Score   *int     `json:"score,omitempty"`
	Summary string   `json:"summary,omitempty"`
	Status  AIStatus `json:"status,omitempty"`
}
