package rules

// Target is what the shooter must strike first.
type Target string

const (
	TargetOpenTable Target = "OPEN_TABLE"
	TargetSolids    Target = "SOLIDS"
	TargetStripes   Target = "STRIPES"
	TargetEightBall Target = "EIGHT_BALL"
)

// CurrentTarget derives the current shooter's target. It is never stored:
// an open table reads OPEN_TABLE, an assigned group reads that group until
// all seven of its balls are down, then EIGHT_BALL.
func (s *Session) CurrentTarget() Target {
	return s.targetFor(s.Turn)
}

// TargetFor derives the target a specific player faces; match views use it
// to show both seats' goals.
func (s *Session) TargetFor(p Player) Target {
	return s.targetFor(p)
}

func (s *Session) targetFor(p Player) Target {
	if !s.Target.Assigned {
		return TargetOpenTable
	}
	group := GroupStripes
	target := TargetStripes
	if s.Target.SolidsPlayer == p {
		group = GroupSolids
		target = TargetSolids
	}
	if s.pocketedInGroup(group) == GroupSize {
		return TargetEightBall
	}
	return target
}

// checkNextTarget assigns the table's groups while it is still open. The
// assignment sticks only when every pocketed object ball of the shot
// belongs to one group; a mixed or empty shot leaves the table open.
func (s *Session) checkNextTarget(sum ShotSummary, shooter Player) {
	if s.Target.Assigned {
		return
	}

	group := GroupNone
	for _, ball := range sum.objectPocketed() {
		g := BallGroup(ball)
		if group == GroupNone {
			group = g
		} else if group != g {
			return // mixed groups, table stays open
		}
	}
	if group == GroupNone {
		return
	}

	solids := shooter
	if group == GroupStripes {
		solids = shooter.Opponent()
	}
	s.Target = TargetAssignment{Assigned: true, SolidsPlayer: solids}
}

// isLegalHit reports whether the shot's first contact was legal against the
// target the shooter faced. No recognized contact is always illegal.
func isLegalHit(first Group, target Target) bool {
	switch target {
	case TargetOpenTable:
		return first == GroupSolids || first == GroupStripes
	case TargetSolids:
		return first == GroupSolids
	case TargetStripes:
		return first == GroupStripes
	case TargetEightBall:
		return first == GroupEight
	}
	return false
}
