package wizard

import (
	"errors"
	"fmt"
)

// ErrorKind classifies stage failures. Every kind leaves the session
// in the stage it was in and the action can be retried.
type ErrorKind string

const (
	// KindInput means the caller's input was rejected before any model call.
	KindInput ErrorKind = "input"
	// KindTransition means the operation is not legal in the current stage.
	KindTransition ErrorKind = "transition"
	// KindTransport means the model call itself failed.
	KindTransport ErrorKind = "transport"
	// KindMalformed means the model replied but no usable record was found.
	KindMalformed ErrorKind = "malformed_response"
)

var (
	// ErrWrongStage is wrapped by transition errors.
	ErrWrongStage = errors.New("operation not allowed in current stage")
	// ErrNoClient is returned when a model call is needed but the session
	// has no credentials.
	ErrNoClient = errors.New("no model credentials configured")
	// ErrStrategyIndex is returned for a selection outside the strategy list.
	ErrStrategyIndex = errors.New("strategy index out of range")
)

// StageError reports a failed wizard operation.
type StageError struct {
	Op    string
	Kind  ErrorKind
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s, stage %s): %v", e.Op, e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// KindOf returns the kind of a *StageError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
