package state

import "fmt"

// State enumerates the fine-grained interview session states.
type State string

const (
	StateCreated         State = "CREATED"
	StateResumeParsed    State = "RESUME_PARSED"
	StateReady           State = "READY"
	StateInProgress      State = "IN_PROGRESS"
	StateQuestionAsked   State = "QUESTION_ASKED"
	StateAnswerSubmitted State = "ANSWER_SUBMITTED"
	StateEvaluating      State = "EVALUATING"
	StateCompleted       State = "COMPLETED"
	StateTerminated      State = "TERMINATED"
)

// InvalidTransitionError reports an attempted transition that is not in the
// table. Callers must not mutate state when they receive one.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// transitions is the directed edge set. Absence means the transition is
// rejected; there are no implicit self-loops.
var transitions = map[State][]State{
	StateCreated:         {StateResumeParsed, StateTerminated},
	StateResumeParsed:    {StateReady, StateTerminated},
	StateReady:           {StateInProgress, StateTerminated},
	StateInProgress:      {StateQuestionAsked, StateTerminated},
	StateQuestionAsked:   {StateAnswerSubmitted, StateTerminated},
	StateAnswerSubmitted: {StateEvaluating, StateTerminated},
	StateEvaluating:      {StateInProgress, StateCompleted, StateTerminated},
	StateCompleted:       {StateTerminated},
	StateTerminated:      {},
}

// Validate returns nil if current → next is an allowed edge, or an
// *InvalidTransitionError otherwise. Unknown states have no outgoing edges.
func Validate(current, next State) error {
	for _, allowed := range transitions[current] {
		if allowed == next {
			return nil
		}
	}
	return &InvalidTransitionError{From: current, To: next}
}

// Terminal reports whether s has no outgoing edges at all.
// Note Completed is NOT terminal in this sense: a completed interview can
// still be voided by a hard violation (Completed → Terminated).
func Terminal(s State) bool {
	return len(transitions[s]) == 0
}
