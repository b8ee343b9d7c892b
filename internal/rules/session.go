// Package rules implements the 8-ball rules engine: a pure, deterministic
// state machine that consumes the contact events of one shot and decides
// fouls, scoring, group assignment and win/loss. It does no I/O and keeps
// no hidden state; callers own the Session exclusively and call into it
// sequentially.
package rules

import (
	"errors"
	"fmt"
	"sort"
)

// Player tags one of the two seats. No per-player state lives here.
type Player string

const (
	PlayerOne Player = "PLAYER_1"
	PlayerTwo Player = "PLAYER_2"
)

// Opponent returns the other player.
func (p Player) Opponent() Player {
	if p == PlayerOne {
		return PlayerTwo
	}
	return PlayerOne
}

// Phase constrains which session transition may be called next.
type Phase string

const (
	PhaseAwaitingRack               Phase = "AWAITING_RACK"
	PhaseAwaitingPlaceBehindHeadStr Phase = "AWAITING_PLACE_BALL_BEHIND_HEAD_STRING"
	PhaseAwaitingPlayerShot         Phase = "AWAITING_PLAYER_SHOT"
	PhaseAwaitingPlaceBallInHand    Phase = "AWAITING_PLACE_BALL_IN_HAND"
	PhaseAwaitingSpotEightBall      Phase = "AWAITING_SPOT_EIGHT_BALL"
	PhaseAwaitingStart              Phase = "AWAITING_START" // terminal; start a new session to play again
)

// ErrInvalidPhaseTransition is returned when a transition is called against
// a session whose phase does not match the transition's precondition.
var ErrInvalidPhaseTransition = errors.New("invalid phase transition")

// TargetAssignment records which player shoots solids once the table is no
// longer open. Once Assigned is set it never reverts for the session.
type TargetAssignment struct {
	Assigned     bool   `json:"assigned"`
	SolidsPlayer Player `json:"solids_player,omitempty"`
}

// PocketedBall is one entry of the pocketed record: an object ball and the
// player whose shot sank it. A ball appears at most once per session.
type PocketedBall struct {
	Ball int    `json:"ball"`
	By   Player `json:"by"`
}

// Score is the number of object balls (eight excluded) each player pocketed.
type Score struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// Session is the aggregate state of one 8-ball game: the append-only event
// log, the current shooter, the pocketed record, the group assignment and
// the phase gating the next operation. Turn, Pocketed and Target are
// tracked incrementally; the log is history, not the source of derivation.
type Session struct {
	Log      []SessionEvent   `json:"log"`
	Phase    Phase            `json:"phase"`
	Turn     Player           `json:"turn"`
	Pocketed []PocketedBall   `json:"pocketed"`
	Target   TargetAssignment `json:"target"`
	Winner   Player           `json:"winner,omitempty"`
}

// Start creates a fresh session. Player one racks and breaks first.
func Start() *Session {
	return &Session{
		Phase: PhaseAwaitingRack,
		Turn:  PlayerOne,
	}
}

// Rack records the balls being racked.
func (s *Session) Rack(at int64) error {
	if err := s.guard(PhaseAwaitingRack); err != nil {
		return err
	}
	s.appendEvent(SessionEvent{Type: EventRacked, At: at})
	s.Phase = PhaseAwaitingPlaceBehindHeadStr
	return nil
}

// PlaceBallBehindHeadString records the cue ball being placed for a break.
// The next shot ruled after this transition is treated as a break shot.
func (s *Session) PlaceBallBehindHeadString(at int64) error {
	if err := s.guard(PhaseAwaitingPlaceBehindHeadStr); err != nil {
		return err
	}
	s.appendEvent(SessionEvent{Type: EventBallPlacedBehindHeadString, At: at})
	s.Phase = PhaseAwaitingPlayerShot
	return nil
}

// PlaceBallInHand records the cue ball being placed freely after a foul.
func (s *Session) PlaceBallInHand(at int64) error {
	if err := s.guard(PhaseAwaitingPlaceBallInHand); err != nil {
		return err
	}
	s.appendEvent(SessionEvent{Type: EventBallPlacedInHand, At: at})
	s.Phase = PhaseAwaitingPlayerShot
	return nil
}

// SpotEightBall records the eight ball being returned to its spot after it
// left the table. The incoming player then places the cue ball behind the
// head string.
func (s *Session) SpotEightBall(at int64) error {
	if err := s.guard(PhaseAwaitingSpotEightBall); err != nil {
		return err
	}
	s.appendEvent(SessionEvent{Type: EventEightBallSpotted, At: at})
	s.Phase = PhaseAwaitingPlaceBehindHeadStr
	return nil
}

// CurrentPlayer returns the player whose action is awaited.
func (s *Session) CurrentPlayer() Player {
	return s.Turn
}

// CurrentScore recomputes both players' pocketed counts from the record.
func (s *Session) CurrentScore() Score {
	var score Score
	for _, p := range s.Pocketed {
		if p.Ball == EightBall {
			continue
		}
		if p.By == PlayerOne {
			score.Player1++
		} else {
			score.Player2++
		}
	}
	return score
}

func (s *Session) guard(want Phase) error {
	if s.Phase != want {
		return fmt.Errorf("%w: session is %s, operation requires %s", ErrInvalidPhaseTransition, s.Phase, want)
	}
	return nil
}

// appendEvent appends to the log and keeps it ordered by timestamp. The
// sort is stable; callers must supply strictly increasing timestamps, so
// equal-timestamp ordering is never decided here.
func (s *Session) appendEvent(e SessionEvent) {
	s.Log = append(s.Log, e)
	sort.SliceStable(s.Log, func(i, j int) bool {
		return s.Log[i].At < s.Log[j].At
	})
}

// lastEventAt returns the timestamp of the most recent log entry.
func (s *Session) lastEventAt() int64 {
	if len(s.Log) == 0 {
		return 0
	}
	return s.Log[len(s.Log)-1].At
}

// recordPocketed appends the shot's object balls to the pocketed record,
// attributed to the shooter. The cue pseudo-entry is dropped here and a
// ball already on record is never recorded twice (a duplicate means the
// upstream classifier misfired, not a reachable game state).
func (s *Session) recordPocketed(pocketed []int, shooter Player) {
	for _, ball := range pocketed {
		if ball < 1 || ball >= NumBalls {
			continue
		}
		if s.isPocketed(ball) {
			continue
		}
		s.Pocketed = append(s.Pocketed, PocketedBall{Ball: ball, By: shooter})
	}
}

func (s *Session) isPocketed(ball int) bool {
	for _, p := range s.Pocketed {
		if p.Ball == ball {
			return true
		}
	}
	return false
}

// pocketedInGroup counts how many balls of a group are on the record,
// regardless of which player's shot sank them.
func (s *Session) pocketedInGroup(g Group) int {
	n := 0
	for _, p := range s.Pocketed {
		if BallGroup(p.Ball) == g {
			n++
		}
	}
	return n
}
