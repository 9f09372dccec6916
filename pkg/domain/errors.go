package domain

import "errors"

// ErrSessionNotFound is returned when a thread ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrConflict is returned when a checkpoint was modified concurrently,
// or when a session is already being driven.
var ErrConflict = errors.New("session conflict")

// ErrStaleReview is returned when resume data targets a review that is no longer pending.
var ErrStaleReview = errors.New("stale review")

// ErrNoPendingReview is returned when resuming a session that is not suspended.
var ErrNoPendingReview = errors.New("no pending review")

// ErrInvalidReviewResponse is returned when resume data cannot be decoded for the pending review.
var ErrInvalidReviewResponse = errors.New("invalid review response")

// ErrFieldOwnership is returned when a stage writes a field it does not own.
var ErrFieldOwnership = errors.New("stage wrote a field it does not own")

// ErrUnknownStage is returned when routing yields a stage that is not registered.
var ErrUnknownStage = errors.New("unknown stage")

// ErrStepLimit is returned when a single drive exceeds the allowed number of transitions.
var ErrStepLimit = errors.New("step limit exceeded")

// ErrInvalidInput is returned when a user request is rejected before the pipeline starts.
var ErrInvalidInput = errors.New("invalid input")
