package domain

import "errors"

var (
	// ErrNoQuestions is returned when a quiz has nothing to answer.
	ErrNoQuestions = errors.New("no questions found for this quiz")
	// ErrLocalInvariant marks a client bug: the UI allowed an action its own gating should have prevented.
	ErrLocalInvariant = errors.New("local invariant violation")
	// ErrTornDown is returned when the owner of a state machine went away while a call was in flight.
	ErrTornDown = errors.New("state machine torn down")
	// ErrNotAuthenticated is returned when an operation needs an identity and none is established.
	ErrNotAuthenticated = errors.New("login required")
	// ErrInvalidDraft is returned when a wizard draft fails validation.
	ErrInvalidDraft = errors.New("draft is not valid")
)
