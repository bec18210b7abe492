package maintenance

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a maintenance error for callers and transports.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindValidation   Kind = "validation"
	KindStorage      Kind = "storage"
)

// Sentinels usable with errors.Is against any *Error of the matching kind.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrStorage      = errors.New("storage failure")
)

// Error carries the classification, operation, and subject of a failure.
type Error struct {
	Kind   Kind
	Op     string
	TaskID int64
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.TaskID != 0 {
		fmt.Fprintf(&b, "task %d: ", e.TaskID)
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(string(e.Kind))
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels so callers can write errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalidState:
		return e.Kind == KindInvalidState
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrStorage:
		return e.Kind == KindStorage
	}
	return false
}

// ErrorKind returns the string classification of the error.
func (e *Error) ErrorKind() string { return string(e.Kind) }

// Retryable reports whether the caller may retry the same operation. Only
// storage failures qualify; nothing retries internally.
func (e *Error) Retryable() bool { return e.Kind == KindStorage }

// NotFound reports an unknown task.
func NotFound(op string, taskID int64) error {
	return &Error{Kind: KindNotFound, Op: op, TaskID: taskID, Msg: "task not found"}
}

// ArtifactNotFound reports an unknown artifact.
func ArtifactNotFound(op, artifactID string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf("artifact %q not found", artifactID)}
}

// InvalidState reports a transition the current status does not permit.
func InvalidState(op string, taskID int64, from, to Status) error {
	return &Error{
		Kind:   KindInvalidState,
		Op:     op,
		TaskID: taskID,
		Msg:    fmt.Sprintf("cannot move from %s to %s", from, to),
	}
}

// Validation reports missing or malformed input.
func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// Storage wraps an I/O failure from the persistence layer.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// KindOf returns the classification of err, or "" when err is not a maintenance error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether err is a storage failure the caller may retry.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}
