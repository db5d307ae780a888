package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeMissingTarget indicates Options.Target was not set.
	ErrCodeMissingTarget ErrorCode = "CONFIG_MISSING_TARGET"

	// ErrCodeMissingEmpty indicates Options.Empty was not set.
	ErrCodeMissingEmpty ErrorCode = "CONFIG_MISSING_EMPTY"

	// ErrCodeNoAccessor indicates no accessor was given and none is built in
	// for the collection type.
	ErrCodeNoAccessor ErrorCode = "CONFIG_NO_ACCESSOR"

	// ErrCodeReducerFailed indicates a reducer returned an error.
	ErrCodeReducerFailed ErrorCode = "REDUCER_FAILED"

	// ErrCodeTransformFailed indicates a transform returned an error.
	ErrCodeTransformFailed ErrorCode = "TRANSFORM_FAILED"

	// ErrCodeTargetFailed indicates the target could not be subscribed.
	ErrCodeTargetFailed ErrorCode = "TARGET_FAILED"
)

// ConfigError is returned by New when the options cannot produce a working
// engine. It is fatal: the engine refuses to start.
type ConfigError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CollaboratorError wraps an error returned by caller-supplied code during a
// round. Run returns it and stops; the store may be left partially mutated
// by the failing round, so the engine instance should be discarded.
type CollaboratorError struct {
	Code ErrorCode

	// Seq is the round that failed.
	Seq int64

	// ID is the entry being reduced, empty for whole-collection failures.
	ID string

	Err error
}

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: round %d, id %q: %v", e.Code, e.Seq, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: round %d: %v", e.Code, e.Seq, e.Err)
}

// Unwrap returns the collaborator's error.
func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsCollaboratorError returns true if err is (or wraps) a CollaboratorError.
func IsCollaboratorError(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}
