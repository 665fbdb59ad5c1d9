package engine

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange        = errors.New("position out of range")
	ErrDestroyed         = errors.New("engine destroyed")
	ErrInvalidTransition = errors.New("invalid transport transition")
)

// OutOfRangeError is returned by SetPosition for a fraction outside [0,1].
type OutOfRangeError struct {
	Value float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("position %v outside [0, 1]", e.Value)
}

func (e *OutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

// TransitionError reports a trigger the current state does not accept.
type TransitionError struct {
	From    State
	Trigger Trigger
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Trigger, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
