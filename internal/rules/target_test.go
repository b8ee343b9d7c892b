package rules

import "testing"

func TestIsLegalHit(t *testing.T) {
	cases := []struct {
		first  Group
		target Target
		legal  bool
	}{
		{GroupSolids, TargetOpenTable, true},
		{GroupStripes, TargetOpenTable, true},
		{GroupEight, TargetOpenTable, false},
		{GroupNone, TargetOpenTable, false},
		{GroupSolids, TargetSolids, true},
		{GroupStripes, TargetSolids, false},
		{GroupEight, TargetSolids, false},
		{GroupStripes, TargetStripes, true},
		{GroupSolids, TargetStripes, false},
		{GroupEight, TargetEightBall, true},
		{GroupSolids, TargetEightBall, false},
		{GroupNone, TargetEightBall, false},
	}

	for _, tc := range cases {
		if got := isLegalHit(tc.first, tc.target); got != tc.legal {
			t.Errorf("isLegalHit(%q, %q) = %v, want %v", tc.first, tc.target, got, tc.legal)
		}
	}
}

func TestBallGroupMapping(t *testing.T) {
	for ball := 1; ball <= 7; ball++ {
		if BallGroup(ball) != GroupSolids {
			t.Errorf("Ball %d should be solid", ball)
		}
	}
	if BallGroup(EightBall) != GroupEight {
		t.Error("Ball 8 should be the eight")
	}
	for ball := 9; ball <= 15; ball++ {
		if BallGroup(ball) != GroupStripes {
			t.Errorf("Ball %d should be a stripe", ball)
		}
	}
	if BallGroup(CueBall) != GroupNone || BallGroup(16) != GroupNone {
		t.Error("Cue ball and out-of-range numbers have no group")
	}
}

func TestTargetPromotesToEightBall(t *testing.T) {
	s := Start()
	s.Target = TargetAssignment{Assigned: true, SolidsPlayer: PlayerOne}
	for ball := 1; ball <= 6; ball++ {
		s.Pocketed = append(s.Pocketed, PocketedBall{Ball: ball, By: PlayerOne})
	}

	if s.targetFor(PlayerOne) != TargetSolids {
		t.Errorf("Six solids down should still target solids, got %s", s.targetFor(PlayerOne))
	}

	// The seventh solid goes down off the opponent's shot; the group is
	// cleared no matter whose shot sank it.
	s.Pocketed = append(s.Pocketed, PocketedBall{Ball: 7, By: PlayerTwo})

	if s.targetFor(PlayerOne) != TargetEightBall {
		t.Errorf("Cleared group should target the eight, got %s", s.targetFor(PlayerOne))
	}
	if s.targetFor(PlayerTwo) != TargetStripes {
		t.Errorf("Opponent still shoots stripes, got %s", s.targetFor(PlayerTwo))
	}
}

func TestCheckNextTargetOnlyWhileOpen(t *testing.T) {
	s := Start()

	// A single stripe makes the shooter stripes (opponent gets solids).
	s.checkNextTarget(ShotSummary{Pocketed: []int{9, 10}}, PlayerOne)
	if !s.Target.Assigned || s.Target.SolidsPlayer != PlayerTwo {
		t.Fatalf("Player one should be stripes: %+v", s.Target)
	}

	// Later shots cannot reassign.
	s.checkNextTarget(ShotSummary{Pocketed: []int{1}}, PlayerTwo)
	if s.Target.SolidsPlayer != PlayerTwo {
		t.Errorf("Assignment must never change: %+v", s.Target)
	}
}

func TestCheckNextTargetIgnoresCueAndEight(t *testing.T) {
	s := Start()

	// Only the scratch pseudo-entry: table stays open.
	s.checkNextTarget(ShotSummary{Pocketed: []int{CueBall}}, PlayerOne)
	if s.Target.Assigned {
		t.Errorf("Scratch alone should not assign: %+v", s.Target)
	}

	// Solid plus eight: the eight does not make the shot mixed.
	s.checkNextTarget(ShotSummary{Pocketed: []int{3, EightBall}}, PlayerOne)
	if !s.Target.Assigned || s.Target.SolidsPlayer != PlayerOne {
		t.Errorf("Player one should be solids: %+v", s.Target)
	}
}

func TestCheckNextTargetMixedStaysOpen(t *testing.T) {
	s := Start()
	s.checkNextTarget(ShotSummary{Pocketed: []int{1, 9}}, PlayerOne)
	if s.Target.Assigned {
		t.Errorf("Mixed pocket should leave the table open: %+v", s.Target)
	}
}
