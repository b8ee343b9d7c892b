package game

import (
	"errors"
	"testing"

	"github.com/pocketbreak/backend/internal/rules"
)

// Helper to create a live two-player match with the rules session started.
func setupLiveMatch(t *testing.T) *Match {
	t.Helper()
	m := NewMatch("m_test", "tok_test",
		&MatchPlayer{ID: "p_alice", Handle: "alice", DisplayName: "Alice"},
		&MatchPlayer{ID: "p_bob", Handle: "bob", DisplayName: "Bob"},
		30)
	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return m
}

// Helper producing a legal break: cue strikes ball 1, four distinct balls
// reach rails.
func legalBreak(start int64) []rules.ShotEvent {
	return []rules.ShotEvent{
		rules.CueHitBall(start, 1),
		rules.BallHitWall(start+10, 1),
		rules.BallHitWall(start+20, 2),
		rules.BallHitWall(start+30, 3),
		rules.BallHitWall(start+40, 4),
	}
}

func TestNewMatchAssignsSeats(t *testing.T) {
	m := NewMatch("m1", "tok",
		&MatchPlayer{ID: "a"}, &MatchPlayer{ID: "b"}, 30)

	if m.Player1.Seat != rules.PlayerOne {
		t.Errorf("player1 seat = %s, want %s", m.Player1.Seat, rules.PlayerOne)
	}
	if m.Player2.Seat != rules.PlayerTwo {
		t.Errorf("player2 seat = %s, want %s", m.Player2.Seat, rules.PlayerTwo)
	}
	if m.GetStatus() != StatusWaiting {
		t.Errorf("new match status = %s, want %s", m.GetStatus(), StatusWaiting)
	}
}

func TestInitializeStartsSessionWithPlayerOne(t *testing.T) {
	m := setupLiveMatch(t)

	if m.GetStatus() != StatusInProgress {
		t.Errorf("status = %s, want %s", m.GetStatus(), StatusInProgress)
	}
	if got := m.CurrentPlayerID(); got != "p_alice" {
		t.Errorf("current player = %s, want p_alice", got)
	}
	if m.Session.Phase != rules.PhaseAwaitingRack {
		t.Errorf("phase = %s, want %s", m.Session.Phase, rules.PhaseAwaitingRack)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	m := setupLiveMatch(t)
	if err := m.ApplyTransition("p_alice", TransitionRack, 100); err != nil {
		t.Fatalf("rack failed: %v", err)
	}

	if err := m.Initialize(); err != nil {
		t.Fatalf("second Initialize errored: %v", err)
	}
	if m.Session.Phase != rules.PhaseAwaitingPlaceBehindHeadStr {
		t.Errorf("second Initialize reset the session, phase = %s", m.Session.Phase)
	}
}

func TestApplyTransitionRejectsWrongPlayer(t *testing.T) {
	m := setupLiveMatch(t)

	err := m.ApplyTransition("p_bob", TransitionRack, 100)
	if !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
}

func TestApplyTransitionRejectsOutOfPhase(t *testing.T) {
	m := setupLiveMatch(t)

	err := m.ApplyTransition("p_alice", TransitionPlaceBallInHand, 100)
	if !errors.Is(err, rules.ErrInvalidPhaseTransition) {
		t.Fatalf("expected ErrInvalidPhaseTransition, got %v", err)
	}
}

func TestApplyShotRejectsBeforeStart(t *testing.T) {
	m := NewMatch("m1", "tok",
		&MatchPlayer{ID: "a"}, &MatchPlayer{ID: "b"}, 30)

	if _, err := m.ApplyShot("a", legalBreak(100)); !errors.Is(err, ErrMatchNotLive) {
		t.Fatalf("expected ErrMatchNotLive, got %v", err)
	}
}

func TestLegalBreakRulingCarriesMatchState(t *testing.T) {
	m := setupLiveMatch(t)
	if err := m.ApplyTransition("p_alice", TransitionRack, 100); err != nil {
		t.Fatalf("rack failed: %v", err)
	}
	if err := m.ApplyTransition("p_alice", TransitionPlaceBallBehindHeadString, 200); err != nil {
		t.Fatalf("place failed: %v", err)
	}

	ruling, err := m.ApplyShot("p_alice", legalBreak(300))
	if err != nil {
		t.Fatalf("ApplyShot failed: %v", err)
	}

	if ruling.Outcome.Kind != rules.OutcomeNextShot {
		t.Errorf("outcome = %s, want %s", ruling.Outcome.Kind, rules.OutcomeNextShot)
	}
	if ruling.ShotNumber != 1 {
		t.Errorf("shot number = %d, want 1", ruling.ShotNumber)
	}
	// Nothing pocketed on the break, so the turn passes to bob.
	if ruling.Turn != "p_bob" {
		t.Errorf("next turn = %s, want p_bob", ruling.Turn)
	}
	if ruling.Phase != rules.PhaseAwaitingPlayerShot {
		t.Errorf("phase = %s, want %s", ruling.Phase, rules.PhaseAwaitingPlayerShot)
	}
}

func TestIllegalBreakHandsRackToOpponent(t *testing.T) {
	m := setupLiveMatch(t)
	m.ApplyTransition("p_alice", TransitionRack, 100)
	m.ApplyTransition("p_alice", TransitionPlaceBallBehindHeadString, 200)

	weak := []rules.ShotEvent{
		rules.CueHitBall(300, 1),
		rules.BallHitWall(310, 1),
	}
	ruling, err := m.ApplyShot("p_alice", weak)
	if err != nil {
		t.Fatalf("ApplyShot failed: %v", err)
	}

	if ruling.Outcome.Kind != rules.OutcomeIllegalBreak {
		t.Fatalf("outcome = %s, want %s", ruling.Outcome.Kind, rules.OutcomeIllegalBreak)
	}
	if ruling.Turn != "p_bob" {
		t.Errorf("next turn = %s, want p_bob", ruling.Turn)
	}
	if err := m.ApplyTransition("p_bob", TransitionRack, 400); err != nil {
		t.Errorf("opponent could not re-rack: %v", err)
	}
}

func TestForfeitByConcedeCompletesMatch(t *testing.T) {
	m := setupLiveMatch(t)

	m.ForfeitByConcede("p_alice")

	if m.GetStatus() != StatusCompleted {
		t.Errorf("status = %s, want %s", m.GetStatus(), StatusCompleted)
	}
	if m.Winner != "p_bob" {
		t.Errorf("winner = %s, want p_bob", m.Winner)
	}
	if m.WinType != "concede" {
		t.Errorf("win type = %s, want concede", m.WinType)
	}

	// A completed match rejects further play.
	if err := m.ApplyTransition("p_alice", TransitionRack, 100); !errors.Is(err, ErrMatchNotLive) {
		t.Errorf("expected ErrMatchNotLive after forfeit, got %v", err)
	}
}

func TestForfeitDoesNotOverrideCompletedMatch(t *testing.T) {
	m := setupLiveMatch(t)

	m.ForfeitByConcede("p_alice")
	m.ForfeitByDisconnect("p_bob")

	if m.Winner != "p_bob" {
		t.Errorf("winner changed after second forfeit: %s", m.Winner)
	}
	if m.WinType != "concede" {
		t.Errorf("win type changed after second forfeit: %s", m.WinType)
	}
}

func TestStateForPlayerIsPersonalized(t *testing.T) {
	m := setupLiveMatch(t)

	alice := m.StateForPlayer("p_alice")
	bob := m.StateForPlayer("p_bob")

	if alice["my_id"] != "p_alice" || alice["opponent_id"] != "p_bob" {
		t.Errorf("alice view wrong: my_id=%v opponent_id=%v", alice["my_id"], alice["opponent_id"])
	}
	if bob["my_id"] != "p_bob" || bob["opponent_id"] != "p_alice" {
		t.Errorf("bob view wrong: my_id=%v opponent_id=%v", bob["my_id"], bob["opponent_id"])
	}
	if alice["my_turn"] != true {
		t.Errorf("alice should be on the table after init")
	}
	if bob["my_turn"] != false {
		t.Errorf("bob should be waiting after init")
	}
}

func TestConnectionTracking(t *testing.T) {
	m := setupLiveMatch(t)

	m.SetPlayerConnected("p_alice", true)
	if m.BothPlayersConnected() {
		t.Errorf("both connected with only alice in")
	}

	m.SetPlayerConnected("p_bob", true)
	if !m.BothPlayersConnected() {
		t.Errorf("both players connected but not reported")
	}

	m.SetPlayerDisconnected("p_bob")
	p := m.GetPlayerByID("p_bob")
	if p == nil || p.Connected {
		t.Errorf("bob still reported connected after disconnect")
	}
	if p != nil && p.DisconnectedAt == nil {
		t.Errorf("disconnect time not recorded")
	}

	m.SetPlayerConnected("p_bob", true)
	if p := m.GetPlayerByID("p_bob"); p.DisconnectedAt != nil {
		t.Errorf("disconnect time not cleared on reconnect")
	}
}
