package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("could not read database row")

	// Classification pipeline errors
	ErrMeetingNotFound       = errors.New("meeting not found")
	ErrEmptyTranscription    = errors.New("meeting transcription is empty")
	ErrEmptyResponse         = errors.New("empty response from classification service")
	ErrMalformedResponse     = errors.New("classification response is not a JSON object")
	ErrInvalidClassification = errors.New("invalid classification")
	ErrExternalCall          = errors.New("classification service call failed")
	ErrEnqueueFailed         = errors.New("failed to enqueue classification job")
	ErrLeaseExhausted        = errors.New("attempts exhausted by expired leases")
)

// PreconditionError rejects a request before anything is submitted to the broker.
type PreconditionError struct {
	Field  string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed: %s %s", e.Field, e.Reason)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ValidationError names the first field of a candidate classification that broke the schema.
type ValidationError struct {
	Field  string
	Reason string
	Value  any
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid classification: field ")
	b.WriteString(e.Field)
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Value != nil {
		fmt.Fprintf(&b, " (got %v)", e.Value)
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidClassification
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that IsPermanent reports true. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether any error in err's chain was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
