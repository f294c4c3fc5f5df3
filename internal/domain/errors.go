package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrPhaseNotFinished is returned when advancing a phase that is still running.
	ErrPhaseNotFinished = errors.New("phase not finished")
	// ErrWrongPhase is returned when an event does not apply to the current phase.
	ErrWrongPhase = errors.New("event not valid in current phase")
	// ErrGeometryUnavailable indicates the map geometry could not be loaded.
	ErrGeometryUnavailable = errors.New("map geometry unavailable")
)
