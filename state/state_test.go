package state

import (
	"testing"

	"github.com/wfunc/yahtzee/models"
)

func TestCanTransition_Allowed(t *testing.T) {
	cases := []struct {
		from models.MatchStatus
		to   models.MatchStatus
	}{
		{models.MatchWaiting, models.MatchWaiting},
		{models.MatchWaiting, models.MatchInProgress},
		{models.MatchWaiting, models.MatchCancelled},
		{models.MatchInProgress, models.MatchFinished},
		{models.MatchInProgress, models.MatchCancelled},
	}

	for _, c := range cases {
		if !CanTransition(c.from, c.to) {
			t.Errorf("Expected transition %s -> %s to be allowed", c.from, c.to)
		}
	}
}

func TestCanTransition_Blocked(t *testing.T) {
	cases := []struct {
		from models.MatchStatus
		to   models.MatchStatus
	}{
		{models.MatchInProgress, models.MatchWaiting},
		{models.MatchFinished, models.MatchCancelled},
		{models.MatchFinished, models.MatchInProgress},
		{models.MatchCancelled, models.MatchWaiting},
		{models.MatchCancelled, models.MatchInProgress},
		{models.MatchWaiting, models.MatchFinished},
	}

	for _, c := range cases {
		if CanTransition(c.from, c.to) {
			t.Errorf("Expected transition %s -> %s to be blocked", c.from, c.to)
		}
	}
}

func TestTransition_MutatesOnSuccess(t *testing.T) {
	m := &models.Match{Status: models.MatchWaiting}

	if err := Transition(m, models.MatchInProgress); err != nil {
		t.Fatalf("Transition should not return an error, but got: %v", err)
	}
	if m.Status != models.MatchInProgress {
		t.Errorf("Expected status IN_PROGRESS, got %s", m.Status)
	}
}

func TestTransition_LeavesMatchUntouchedOnFailure(t *testing.T) {
	m := &models.Match{Status: models.MatchFinished}

	err := Transition(m, models.MatchInProgress)
	if err != ErrTransitionNotAllowed {
		t.Fatalf("Expected ErrTransitionNotAllowed, got: %v", err)
	}
	if m.Status != models.MatchFinished {
		t.Errorf("Blocked transition must not change status, got %s", m.Status)
	}
}
