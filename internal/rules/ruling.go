package rules

// OutcomeKind classifies the ruling for one completed shot.
type OutcomeKind string

const (
	OutcomeIllegalBreak OutcomeKind = "ILLEGAL_BREAK"
	OutcomePlayersFault OutcomeKind = "PLAYERS_FAULT"
	OutcomeNextShot     OutcomeKind = "NEXT_SHOT"
	OutcomeGameOver     OutcomeKind = "GAME_OVER"
)

// FaultReason narrows a PLAYERS_FAULT outcome to what the incoming player
// must do before the next shot.
type FaultReason string

const (
	FaultSpotEightBall   FaultReason = "SPOT_EIGHT_BALL"
	FaultPlaceBallInHand FaultReason = "PLACE_BALL_IN_HAND"
)

// Outcome is the ruling returned by PlayerShot. Fault is set only for
// PLAYERS_FAULT, Winner only for GAME_OVER.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Fault  FaultReason `json:"fault,omitempty"`
	Winner Player      `json:"winner,omitempty"`
}

// PlayerShot rules one completed shot. The events must be the full,
// time-ordered contact list produced after the table settled; the shot is
// logged at its first event's timestamp (or the previous log entry's when
// the cue struck nothing). Exactly one Shot entry is appended per call,
// illegal breaks included, so the log's shot count equals the number of
// shots taken. The session's phase and turn advance according to the
// outcome.
func (s *Session) PlayerShot(events []ShotEvent) (Outcome, error) {
	if err := s.guard(PhaseAwaitingPlayerShot); err != nil {
		return Outcome{}, err
	}

	at := s.lastEventAt()
	if len(events) > 0 {
		at = events[0].At
	}

	// A shot taken right after the cue ball was placed behind the head
	// string is the break.
	isBreak := len(s.Log) > 0 && s.Log[len(s.Log)-1].Type == EventBallPlacedBehindHeadString

	s.appendEvent(SessionEvent{Type: EventShot, At: at, Shot: events})

	shooter := s.Turn
	sum := Classify(events)

	// === BREAK SHOT ===
	if isBreak {
		if len(sum.RailContacts) < BreakRailMinimum && len(sum.Pocketed) == 0 {
			// Weak break: the incoming player racks and breaks instead.
			s.Turn = shooter.Opponent()
			s.Phase = PhaseAwaitingRack
			return Outcome{Kind: OutcomeIllegalBreak}, nil
		}
		if sum.EightOffTable {
			s.Turn = shooter.Opponent()
			s.Phase = PhaseAwaitingSpotEightBall
			return Outcome{Kind: OutcomePlayersFault, Fault: FaultSpotEightBall}, nil
		}
	}

	// === GROUP ASSIGNMENT & SCORING ===
	// The target the shooter faced is fixed before this shot's pockets are
	// applied; assignment runs regardless of any foul on the same shot.
	previousTarget := s.targetFor(shooter)
	s.checkNextTarget(sum, shooter)
	s.recordPocketed(sum.Pocketed, shooter)

	legal := isLegalHit(sum.FirstContactGroup, previousTarget)

	// === EIGHT BALL ===
	if sum.EightPocketed {
		winner := shooter.Opponent()
		if s.targetFor(shooter) == TargetEightBall && !sum.Scratched && legal {
			winner = shooter
		}
		s.Winner = winner
		s.appendEvent(SessionEvent{Type: EventGameOver, At: at})
		s.Phase = PhaseAwaitingStart
		return Outcome{Kind: OutcomeGameOver, Winner: winner}, nil
	}

	if sum.EightOffTable {
		s.Turn = shooter.Opponent()
		s.Phase = PhaseAwaitingSpotEightBall
		return Outcome{Kind: OutcomePlayersFault, Fault: FaultSpotEightBall}, nil
	}

	// === FOULS ===
	if sum.Scratched || !legal || len(sum.OffTable) > 0 {
		s.Turn = shooter.Opponent()
		s.Phase = PhaseAwaitingPlaceBallInHand
		return Outcome{Kind: OutcomePlayersFault, Fault: FaultPlaceBallInHand}, nil
	}

	// === TURN MANAGEMENT ===
	if !s.shooterContinues(sum, previousTarget) {
		s.Turn = shooter.Opponent()
	}
	return Outcome{Kind: OutcomeNextShot}, nil
}

// shooterContinues decides whether a legal shot keeps the table.
func (s *Session) shooterContinues(sum ShotSummary, previousTarget Target) bool {
	pocketed := sum.objectPocketed()
	if len(pocketed) == 0 {
		return false
	}

	switch previousTarget {
	case TargetOpenTable:
		// Stay only when everything pocketed shares one group.
		group := BallGroup(pocketed[0])
		for _, ball := range pocketed[1:] {
			if BallGroup(ball) != group {
				return false
			}
		}
		return true
	case TargetSolids:
		return s.anyInGroup(pocketed, GroupSolids)
	case TargetStripes:
		return s.anyInGroup(pocketed, GroupStripes)
	}
	return false
}

func (s *Session) anyInGroup(balls []int, g Group) bool {
	for _, ball := range balls {
		if BallGroup(ball) == g {
			return true
		}
	}
	return false
}
