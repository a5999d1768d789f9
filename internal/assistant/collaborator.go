package assistant

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned by providers that cannot serve requests.
	ErrUnavailable = errors.New("assistant unavailable")
	// ErrMalformedResponse is returned when a reply cannot be parsed.
	ErrMalformedResponse = errors.New("malformed assistant response")
)

// Clarification is the assistant's view of whether a capture is actionable.
// Nil booleans mean the assistant could not decide.
type Clarification struct {
	Actionable *bool
	IsProject  *bool
	Outcome    string
	Rationale  string
}

// Assessment is the assistant's Eisenhower call. Nil booleans mean unknown.
type Assessment struct {
	Urgent    *bool
	Important *bool
	Rationale string
}

// Collaborator answers clarification, next-action and prioritization
// questions. Implementations never return errors; failures come back as
// unknown answers with an explanatory rationale.
type Collaborator interface {
	// Available reports whether answers come from a real model.
	Available() bool
	Clarify(ctx context.Context, description string) Clarification
	// SuggestNextAction returns "" when there is no suggestion.
	SuggestNextAction(ctx context.Context, project, outcome string) string
	AssessPriority(ctx context.Context, description string) Assessment
}

// ManualFallbackRationale explains NoOp clarifications.
const ManualFallbackRationale = "manual fallback: no assistant configured, filed as reference"

// NoOp is the collaborator used when no provider is configured.
type NoOp struct{}

// Available returns false.
func (NoOp) Available() bool { return false }

// Clarify marks every capture non-actionable.
func (NoOp) Clarify(context.Context, string) Clarification {
	return Clarification{Actionable: boolPtr(false), Rationale: ManualFallbackRationale}
}

// SuggestNextAction never has a suggestion.
func (NoOp) SuggestNextAction(context.Context, string, string) string { return "" }

// AssessPriority returns an unknown assessment.
func (NoOp) AssessPriority(context.Context, string) Assessment {
	return Assessment{Rationale: "no assistant configured"}
}

func boolPtr(v bool) *bool { return &v }

var _ Collaborator = NoOp{}
