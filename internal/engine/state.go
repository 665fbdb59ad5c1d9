package engine

import "strconv"

// State is the transport state of an Engine.
type State uint8

const (
	Paused State = iota
	Playing
	DraggingFromPlay
	DraggingFromPause
	Destroyed // terminal
)

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	case DraggingFromPlay:
		return "dragging (from play)"
	case DraggingFromPause:
		return "dragging (from pause)"
	case Destroyed:
		return "destroyed"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Dragging reports whether the playhead is held by a scrub.
func (s State) Dragging() bool {
	return s == DraggingFromPlay || s == DraggingFromPause
}

// Trigger is an input to the transport state machine.
type Trigger uint8

const (
	TriggerToggle Trigger = iota
	TriggerBeginDrag
	TriggerEndDrag
	TriggerDestroy
)

func (t Trigger) String() string {
	switch t {
	case TriggerToggle:
		return "toggle"
	case TriggerBeginDrag:
		return "begin drag"
	case TriggerEndDrag:
		return "end drag"
	case TriggerDestroy:
		return "destroy"
	default:
		return "Trigger(" + strconv.Itoa(int(t)) + ")"
	}
}

// Transition returns the state reached from `from` on t, or a
// *TransitionError if the transport does not accept t there. Destroy is
// accepted from every state.
func Transition(from State, t Trigger) (State, error) {
	if t == TriggerDestroy {
		return Destroyed, nil
	}
	switch from {
	case Paused:
		switch t {
		case TriggerToggle:
			return Playing, nil
		case TriggerBeginDrag:
			return DraggingFromPause, nil
		}
	case Playing:
		switch t {
		case TriggerToggle:
			return Paused, nil
		case TriggerBeginDrag:
			return DraggingFromPlay, nil
		}
	case DraggingFromPlay:
		if t == TriggerEndDrag {
			return Playing, nil
		}
	case DraggingFromPause:
		if t == TriggerEndDrag {
			return Paused, nil
		}
	case Destroyed:
	}
	return from, &TransitionError{From: from, Trigger: t}
}
