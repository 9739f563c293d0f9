package services

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names where a single identifier can fail.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageParse  Stage = "parse"
	StageDerive Stage = "derive"
	StageExport Stage = "export"
)

// AuthError means no session could be established; nothing was processed.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authenticate: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ItemError is the failure of one identifier at one stage.
type ItemError struct {
	Identifier string
	Stage      Stage
	Err        error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("failed to process tricount %s: %v", e.Identifier, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// BatchError collects every per-identifier failure of a run, in the order
// the identifiers were given.
type BatchError struct {
	Failures []*ItemError
	Total    int
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("failed to process some tricounts (%d of %d): %s",
		len(e.Failures), e.Total, strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f
	}
	return out
}

// Identifiers lists the failed identifiers in order.
func (e *BatchError) Identifiers() []string {
	out := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Identifier
	}
	return out
}

// IsAuthError reports whether err stopped a run before any identifier.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
