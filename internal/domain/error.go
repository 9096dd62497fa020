package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Analysis workflow
	ErrAnalysisUnavailable = errors.New("job has no description to analyze")
	ErrAnalysisInFlight    = errors.New("analysis already pending for job")
	ErrAnalysisTransition  = errors.New("analysis transition not allowed")

	// Views
	ErrViewClosed = errors.New("view closed")
)
