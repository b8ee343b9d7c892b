package rules

import "testing"

func TestClassifyEmptyShot(t *testing.T) {
	sum := Classify(nil)

	if len(sum.Pocketed) != 0 || sum.Scratched || sum.EightPocketed {
		t.Errorf("Empty shot should classify to empty summary: %+v", sum)
	}
	if sum.FirstContactGroup != GroupNone {
		t.Errorf("Empty shot should have no recognized contact, got %s", sum.FirstContactGroup)
	}
}

func TestClassifyFirstContactNeedsConsequence(t *testing.T) {
	// Cue touches ball 5 and everything stops dead: no rail, no pocket.
	sum := Classify([]ShotEvent{CueHitBall(10, 5)})
	if sum.FirstContactGroup != GroupNone {
		t.Errorf("Contact without rail/pocket should not be recognized, got %s", sum.FirstContactGroup)
	}

	// Same contact, but ball 5 reaches a rail afterwards.
	sum = Classify([]ShotEvent{CueHitBall(10, 5), BallHitWall(20, 5)})
	if sum.FirstContactGroup != GroupSolids {
		t.Errorf("Expected SOLIDS first contact, got %s", sum.FirstContactGroup)
	}

	// A cue cushion contact after the hit also counts as consequence.
	sum = Classify([]ShotEvent{CueHitBall(10, 12), CueHitWall(20)})
	if sum.FirstContactGroup != GroupStripes {
		t.Errorf("Expected STRIPES first contact, got %s", sum.FirstContactGroup)
	}

	// Rail contact before the hit is no consequence of it.
	sum = Classify([]ShotEvent{CueHitWall(5), CueHitBall(10, 5)})
	if sum.FirstContactGroup != GroupNone {
		t.Errorf("Rail before contact should not recognize it, got %s", sum.FirstContactGroup)
	}
}

func TestClassifyFirstContactIsFirst(t *testing.T) {
	sum := Classify([]ShotEvent{
		CueHitBall(10, 9),
		CueHitBall(20, 1),
		BallFellInPocket(30, 1),
	})
	if sum.FirstContactGroup != GroupStripes {
		t.Errorf("First contact should be the 9 (stripes), got %s", sum.FirstContactGroup)
	}
}

func TestClassifyScratchPseudoEntry(t *testing.T) {
	sum := Classify([]ShotEvent{
		CueHitBall(10, 3),
		BallFellInPocket(20, 3),
		Scratch(30),
	})

	if !sum.Scratched {
		t.Error("Scratch event should set Scratched")
	}
	if len(sum.Pocketed) != 2 || sum.Pocketed[0] != 3 || sum.Pocketed[1] != CueBall {
		t.Errorf("Pocketed should carry the cue pseudo-entry: %v", sum.Pocketed)
	}
}

func TestClassifyRailContactsAreDistinct(t *testing.T) {
	sum := Classify([]ShotEvent{
		CueHitBall(10, 1),
		BallHitWall(20, 2),
		BallHitWall(30, 2),
		BallHitWall(40, 9),
		BallHitWall(50, 2),
	})

	if len(sum.RailContacts) != 2 {
		t.Errorf("Expected 2 distinct rail-contacted balls, got %d", len(sum.RailContacts))
	}
	if !sum.RailContacts[2] || !sum.RailContacts[9] {
		t.Errorf("Expected balls 2 and 9 in rail set: %v", sum.RailContacts)
	}
}

func TestClassifyOffTableRouting(t *testing.T) {
	sum := Classify([]ShotEvent{
		CueHitBall(10, 1),
		BallOffTable(20, 5),
		BallOffTable(30, EightBall),
	})

	if len(sum.OffTable) != 1 || sum.OffTable[0] != 5 {
		t.Errorf("Ball 5 should be tracked off-table: %v", sum.OffTable)
	}
	if !sum.EightOffTable {
		t.Error("Eight ball off table should be flagged separately")
	}
	if sum.Scratched {
		t.Error("Object balls off table are not a scratch")
	}

	// Cue ball leaving the table is a scratch.
	sum = Classify([]ShotEvent{CueHitBall(10, 1), BallOffTable(20, CueBall)})
	if !sum.Scratched {
		t.Error("Cue ball off table should count as a scratch")
	}
}

func TestClassifyEightPocketed(t *testing.T) {
	sum := Classify([]ShotEvent{
		CueHitBall(10, EightBall),
		BallFellInPocket(20, EightBall),
	})

	if !sum.EightPocketed {
		t.Error("Eight ball pocket should be flagged")
	}
	if sum.FirstContactGroup != GroupEight {
		t.Errorf("Expected EIGHT first contact, got %s", sum.FirstContactGroup)
	}
}
