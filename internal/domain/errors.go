package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrGenerationInFlight = errors.New("generation already in progress")
	ErrNoUpstreamArtifact = errors.New("no confirmed image artifact")
)
