package state

import (
	"errors"
	"testing"
)

var allStates = []State{
	StateCreated, StateResumeParsed, StateReady, StateInProgress,
	StateQuestionAsked, StateAnswerSubmitted, StateEvaluating,
	StateCompleted, StateTerminated,
}

// allowed mirrors the transition table as a flat edge list so the test fails
// loudly if either copy drifts.
var allowed = map[State]map[State]bool{
	StateCreated:         {StateResumeParsed: true, StateTerminated: true},
	StateResumeParsed:    {StateReady: true, StateTerminated: true},
	StateReady:           {StateInProgress: true, StateTerminated: true},
	StateInProgress:      {StateQuestionAsked: true, StateTerminated: true},
	StateQuestionAsked:   {StateAnswerSubmitted: true, StateTerminated: true},
	StateAnswerSubmitted: {StateEvaluating: true, StateTerminated: true},
	StateEvaluating:      {StateInProgress: true, StateCompleted: true, StateTerminated: true},
	StateCompleted:       {StateTerminated: true},
	StateTerminated:      {},
}

func TestValidateExhaustive(t *testing.T) {
	for _, from := range allStates {
		for _, to := range allStates {
			err := Validate(from, to)
			want := allowed[from][to]
			if want && err != nil {
				t.Errorf("Validate(%s, %s) = %v, want nil", from, to, err)
			}
			if !want && err == nil {
				t.Errorf("Validate(%s, %s) = nil, want error", from, to)
			}
		}
	}
}

func TestValidateRejectsIdentity(t *testing.T) {
	for _, s := range allStates {
		if err := Validate(s, s); err == nil {
			t.Errorf("Validate(%s, %s) accepted a self-loop", s, s)
		}
	}
}

func TestInvalidTransitionErrorCarriesEndpoints(t *testing.T) {
	err := Validate(StateCompleted, StateInProgress)
	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected *InvalidTransitionError, got %T", err)
	}
	if ite.From != StateCompleted || ite.To != StateInProgress {
		t.Errorf("error endpoints = %s→%s, want COMPLETED→IN_PROGRESS", ite.From, ite.To)
	}
}

func TestValidateUnknownState(t *testing.T) {
	if err := Validate(State("BOGUS"), StateReady); err == nil {
		t.Error("unknown source state should have no outgoing edges")
	}
}

func TestTerminal(t *testing.T) {
	if !Terminal(StateTerminated) {
		t.Error("TERMINATED must be terminal")
	}
	if Terminal(StateCompleted) {
		t.Error("COMPLETED still has the TERMINATED edge, must not be terminal")
	}
}
