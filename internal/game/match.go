package game

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pocketbreak/backend/internal/rules"
)

// MatchStatus represents the current state of a match
type MatchStatus string

const (
	StatusWaiting    MatchStatus = "WAITING"
	StatusInProgress MatchStatus = "IN_PROGRESS"
	StatusCompleted  MatchStatus = "COMPLETED"
	StatusCancelled  MatchStatus = "CANCELLED"
)

// MatchPlayer represents one seat in a live match.
type MatchPlayer struct {
	ID             string       `json:"id"`
	Handle         string       `json:"handle"`
	DBPlayerID     int          `json:"db_player_id,omitempty"`
	DisplayName    string       `json:"display_name,omitempty"`
	PlayerToken    string       `json:"-"`
	Seat           rules.Player `json:"seat"`
	Connected      bool         `json:"connected"`
	ShowedUp       bool         `json:"showed_up"`
	DisconnectedAt *time.Time   `json:"-"`
}

// TransitionKind names a client-requested session transition.
type TransitionKind string

const (
	TransitionRack                      TransitionKind = "rack"
	TransitionPlaceBallBehindHeadString TransitionKind = "place_ball_behind_head_string"
	TransitionPlaceBallInHand           TransitionKind = "place_ball_in_hand"
	TransitionSpotEightBall             TransitionKind = "spot_eight_ball"
)

var (
	ErrNotYourTurn       = errors.New("not your turn")
	ErrMatchNotLive      = errors.New("match is not in progress")
	ErrUnknownTransition = errors.New("unknown transition")
)

// ShotRuling pairs the rules outcome with the state the clients need to
// render the next phase of play.
type ShotRuling struct {
	Outcome    rules.Outcome `json:"outcome"`
	ShotNumber int           `json:"shot_number"`
	Phase      rules.Phase   `json:"phase"`
	Turn       string        `json:"turn"` // player ID, not seat
	Target     rules.Target  `json:"target"`
	Score      rules.Score   `json:"score"`
}

// Match owns one rules.Session and serializes all access to it. The rules
// engine itself is pure; the mutex here enforces the one-in-flight-call
// ownership the engine requires.
type Match struct {
	ID           string          `json:"id"`
	Token        string          `json:"token"`
	Player1      *MatchPlayer    `json:"player1"`
	Player2      *MatchPlayer    `json:"player2"`
	Session      *rules.Session  `json:"session"`
	Status       MatchStatus     `json:"status"`
	Winner       string          `json:"winner,omitempty"`
	WinType      string          `json:"win_type,omitempty"`
	ShotNumber   int             `json:"shot_number"`
	SessionID    int             `json:"session_id,omitempty"`
	ExpiresAt    time.Time       `json:"expires_at"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	LastActivity time.Time       `json:"last_activity"`
	mu           sync.RWMutex
}

// NewMatch creates a match in the waiting state.
func NewMatch(id, token string, p1, p2 *MatchPlayer, expiryMinutes int) *Match {
	p1.Seat = rules.PlayerOne
	p2.Seat = rules.PlayerTwo

	return &Match{
		ID:           id,
		Token:        token,
		Player1:      p1,
		Player2:      p2,
		Status:       StatusWaiting,
		ExpiresAt:    time.Now().Add(time.Duration(expiryMinutes) * time.Minute),
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}
}

// Initialize starts the rules session once both players showed up.
func (m *Match) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status == StatusInProgress || m.StartedAt != nil {
		log.Printf("[MATCH INIT] Match %s already initialized, skipping", m.ID)
		return nil
	}

	m.Session = rules.Start()
	m.ShotNumber = 0

	now := time.Now()
	m.StartedAt = &now
	m.Status = StatusInProgress
	m.LastActivity = now

	log.Printf("[MATCH INIT] Match %s initialized, %s racks and breaks", m.ID, m.currentPlayerIDLocked())
	return nil
}

// ApplyTransition runs one phase transition (rack, placements, spotting)
// on behalf of a player. The rules engine rejects out-of-order calls with
// rules.ErrInvalidPhaseTransition; that error is passed through untouched.
func (m *Match) ApplyTransition(playerID string, kind TransitionKind, at int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status != StatusInProgress {
		return ErrMatchNotLive
	}
	if m.currentPlayerIDLocked() != playerID {
		return ErrNotYourTurn
	}

	var err error
	switch kind {
	case TransitionRack:
		err = m.Session.Rack(at)
	case TransitionPlaceBallBehindHeadString:
		err = m.Session.PlaceBallBehindHeadString(at)
	case TransitionPlaceBallInHand:
		err = m.Session.PlaceBallInHand(at)
	case TransitionSpotEightBall:
		err = m.Session.SpotEightBall(at)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownTransition, kind)
	}
	if err != nil {
		return err
	}

	m.LastActivity = time.Now()
	log.Printf("[MATCH] %s applied %s, phase=%s", playerID, kind, m.Session.Phase)
	return nil
}

// ApplyShot rules one completed shot. The caller supplies the full,
// time-ordered contact list the client physics produced after the table
// settled.
func (m *Match) ApplyShot(playerID string, events []rules.ShotEvent) (*ShotRuling, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status != StatusInProgress {
		return nil, ErrMatchNotLive
	}
	if m.currentPlayerIDLocked() != playerID {
		return nil, ErrNotYourTurn
	}

	outcome, err := m.Session.PlayerShot(events)
	if err != nil {
		return nil, err
	}

	m.ShotNumber++
	m.LastActivity = time.Now()

	if outcome.Kind == rules.OutcomeGameOver {
		m.Status = StatusCompleted
		m.Winner = m.playerForSeatLocked(outcome.Winner).ID
		m.WinType = "ruled"
		now := time.Now()
		m.CompletedAt = &now
	}

	ruling := &ShotRuling{
		Outcome:    outcome,
		ShotNumber: m.ShotNumber,
		Phase:      m.Session.Phase,
		Turn:       m.currentPlayerIDLocked(),
		Target:     m.Session.CurrentTarget(),
		Score:      m.Session.CurrentScore(),
	}

	log.Printf("[MATCH] Shot #%d by %s, outcome=%s, phase=%s, nextTurn=%s",
		m.ShotNumber, playerID, outcome.Kind, m.Session.Phase, ruling.Turn)

	return ruling, nil
}

// StateForPlayer returns the match state visible to a specific player.
func (m *Match) StateForPlayer(playerID string) map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	me, opp := m.playerAndOpponentLocked(playerID)

	state := map[string]interface{}{
		"match_id":              m.ID,
		"token":                 m.Token,
		"status":                m.Status,
		"my_id":                 me.ID,
		"opponent_id":           opp.ID,
		"my_display_name":       me.DisplayName,
		"opponent_display_name": opp.DisplayName,
		"my_connected":          me.Connected,
		"opponent_connected":    opp.Connected,
		"shot_number":           m.ShotNumber,
		"winner":                m.Winner,
		"win_type":              m.WinType,
	}

	if m.Session != nil {
		state["phase"] = m.Session.Phase
		state["my_turn"] = m.currentPlayerIDLocked() == playerID
		state["current_turn"] = m.currentPlayerIDLocked()
		state["score"] = m.Session.CurrentScore()
		state["my_target"] = m.Session.TargetFor(me.Seat)
		state["opponent_target"] = m.Session.TargetFor(opp.Seat)
		state["pocketed"] = m.Session.Pocketed
	}

	return state
}

// === Connection management ===

func (m *Match) SetPlayerConnected(playerID string, connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.playerByIDLocked(playerID); p != nil {
		p.Connected = connected
		if connected {
			p.DisconnectedAt = nil
		}
	}
}

func (m *Match) SetPlayerDisconnected(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.playerByIDLocked(playerID); p != nil {
		now := time.Now()
		p.Connected = false
		p.DisconnectedAt = &now
	}
}

func (m *Match) MarkPlayerShowedUp(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.playerByIDLocked(playerID); p != nil {
		p.ShowedUp = true
	}
}

func (m *Match) BothPlayersConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Player1.Connected && m.Player2.Connected
}

func (m *Match) GetOpponentID(playerID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Player1.ID == playerID {
		return m.Player2.ID
	}
	return m.Player1.ID
}

func (m *Match) GetPlayerByID(playerID string) *MatchPlayer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playerByIDLocked(playerID)
}

func (m *Match) GetStatus() MatchStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Status
}

// CurrentPlayerID returns the ID of the player whose action is awaited.
func (m *Match) CurrentPlayerID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentPlayerIDLocked()
}

// ForfeitByDisconnect ends the match because a player stayed disconnected
// past the grace period.
func (m *Match) ForfeitByDisconnect(disconnectedPlayerID string) {
	m.forfeit(disconnectedPlayerID, "forfeit")
}

// ForfeitByConcede ends the match because a player conceded.
func (m *Match) ForfeitByConcede(concedingPlayerID string) {
	m.forfeit(concedingPlayerID, "concede")
}

func (m *Match) forfeit(losingPlayerID, winType string) {
	m.mu.Lock()
	if m.Status == StatusCompleted {
		m.mu.Unlock()
		return
	}

	if losingPlayerID == m.Player1.ID {
		m.Winner = m.Player2.ID
	} else {
		m.Winner = m.Player1.ID
	}
	m.Status = StatusCompleted
	m.WinType = winType
	now := time.Now()
	m.CompletedAt = &now
	// SaveFinalMatchState snapshots the match and takes the lock itself.
	m.mu.Unlock()

	if Manager != nil {
		Manager.SaveFinalMatchState(m)
	}
}

// === Internal helpers (lock held) ===

func (m *Match) currentPlayerIDLocked() string {
	if m.Session == nil {
		return ""
	}
	return m.playerForSeatLocked(m.Session.CurrentPlayer()).ID
}

func (m *Match) playerForSeatLocked(seat rules.Player) *MatchPlayer {
	if m.Player1.Seat == seat {
		return m.Player1
	}
	return m.Player2
}

func (m *Match) playerByIDLocked(playerID string) *MatchPlayer {
	if m.Player1.ID == playerID {
		return m.Player1
	}
	if m.Player2.ID == playerID {
		return m.Player2
	}
	return nil
}

func (m *Match) playerAndOpponentLocked(playerID string) (*MatchPlayer, *MatchPlayer) {
	if m.Player1.ID == playerID {
		return m.Player1, m.Player2
	}
	return m.Player2, m.Player1
}
