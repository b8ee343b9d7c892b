package rules

import (
	"errors"
	"testing"
)

func TestStartSession(t *testing.T) {
	s := Start()

	if s.Phase != PhaseAwaitingRack {
		t.Errorf("New session should await rack, got %s", s.Phase)
	}
	if s.CurrentPlayer() != PlayerOne {
		t.Errorf("Player one should break, got %s", s.CurrentPlayer())
	}
	if s.CurrentTarget() != TargetOpenTable {
		t.Errorf("New session should be open table, got %s", s.CurrentTarget())
	}
	if score := s.CurrentScore(); score.Player1 != 0 || score.Player2 != 0 {
		t.Errorf("New session should have zero score: %+v", score)
	}
}

func TestTransitionsAppendToLog(t *testing.T) {
	s := Start()

	if err := s.Rack(100); err != nil {
		t.Fatalf("Rack failed: %v", err)
	}
	if err := s.PlaceBallBehindHeadString(200); err != nil {
		t.Fatalf("PlaceBallBehindHeadString failed: %v", err)
	}

	if len(s.Log) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(s.Log))
	}
	if s.Log[0].Type != EventRacked || s.Log[0].At != 100 {
		t.Errorf("First entry should be RACKED@100: %+v", s.Log[0])
	}
	if s.Log[1].Type != EventBallPlacedBehindHeadString || s.Log[1].At != 200 {
		t.Errorf("Second entry should be BALL_PLACED_BEHIND_HEAD_STRING@200: %+v", s.Log[1])
	}
	if s.Phase != PhaseAwaitingPlayerShot {
		t.Errorf("Session should await the break, got %s", s.Phase)
	}
}

func TestOutOfOrderTransitionsRejected(t *testing.T) {
	s := Start()

	cases := []struct {
		name string
		call func() error
	}{
		{"place before rack", func() error { return s.PlaceBallBehindHeadString(10) }},
		{"ball in hand before rack", func() error { return s.PlaceBallInHand(10) }},
		{"spot eight before rack", func() error { return s.SpotEightBall(10) }},
		{"shot before rack", func() error {
			_, err := s.PlayerShot(nil)
			return err
		}},
	}

	for _, tc := range cases {
		err := tc.call()
		if !errors.Is(err, ErrInvalidPhaseTransition) {
			t.Errorf("%s: expected ErrInvalidPhaseTransition, got %v", tc.name, err)
		}
	}

	if len(s.Log) != 0 {
		t.Errorf("Rejected transitions must not append events: %d entries", len(s.Log))
	}
}

func TestDoubleRackRejected(t *testing.T) {
	s := Start()
	if err := s.Rack(10); err != nil {
		t.Fatalf("Rack failed: %v", err)
	}
	if err := s.Rack(20); !errors.Is(err, ErrInvalidPhaseTransition) {
		t.Errorf("Second rack should be rejected, got %v", err)
	}
}

func TestTerminalSessionRejectsEverything(t *testing.T) {
	s := Start()
	c := &clock{}
	mustAdvanceToShot(t, s, c)
	winByEarlyEight(t, s, c)

	if s.Phase != PhaseAwaitingStart {
		t.Fatalf("Session should be terminal, got %s", s.Phase)
	}

	if err := s.Rack(c.next()); !errors.Is(err, ErrInvalidPhaseTransition) {
		t.Errorf("Terminal session should reject rack, got %v", err)
	}
	if _, err := s.PlayerShot(nil); !errors.Is(err, ErrInvalidPhaseTransition) {
		t.Errorf("Terminal session should reject shots, got %v", err)
	}
}

func TestLogStaysOrderedByTimestamp(t *testing.T) {
	s := Start()
	if err := s.Rack(100); err != nil {
		t.Fatalf("Rack failed: %v", err)
	}
	if err := s.PlaceBallBehindHeadString(250); err != nil {
		t.Fatalf("PlaceBallBehindHeadString failed: %v", err)
	}

	for i := 1; i < len(s.Log); i++ {
		if s.Log[i-1].At > s.Log[i].At {
			t.Errorf("Log out of order at %d: %d > %d", i, s.Log[i-1].At, s.Log[i].At)
		}
	}
}
