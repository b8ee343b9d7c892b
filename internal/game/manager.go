package game

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"github.com/pocketbreak/backend/internal/config"
	"github.com/pocketbreak/backend/internal/rules"
	"github.com/redis/go-redis/v9"
)

const (
	matchKeyPrefix = "match:"
	queueKey       = "match_queue"
	eventsChannel  = "match_events"
)

var ErrMatchNotFound = errors.New("match not found")

// MatchManager tracks live matches, pairs queued players and persists
// match results. Live state lives in memory with a redis snapshot behind
// it so a restarted node can rehydrate a match by token.
type MatchManager struct {
	db      *sqlx.DB
	rdb     *redis.Client
	config  *config.Config
	matches map[string]*Match // match ID -> match
	byToken map[string]*Match
	mu      sync.RWMutex
}

// Manager is the process-wide match manager.
var Manager *MatchManager

// InitializeManager sets up the global manager.
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewMatchManager(db, rdb, cfg)
	log.Println("[MANAGER] Match manager initialized")
}

func NewMatchManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *MatchManager {
	return &MatchManager{
		db:      db,
		rdb:     rdb,
		config:  cfg,
		matches: make(map[string]*Match),
		byToken: make(map[string]*Match),
	}
}

// generateToken returns a URL-safe random token.
func generateToken(length int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	rand.Read(b)
	for i := range b {
		b[i] = chars[int(b[i])%len(chars)]
	}
	return string(b)
}

func generateMatchID() string {
	return fmt.Sprintf("m_%d_%s", time.Now().UnixMilli(), generateToken(6))
}

// playerClaims is the JWT payload carried by a player's match token.
type playerClaims struct {
	PlayerID   string `json:"player_id"`
	MatchToken string `json:"match_token"`
	jwt.RegisteredClaims
}

// issuePlayerToken signs a per-player match access token.
func (mm *MatchManager) issuePlayerToken(playerID, matchToken string) (string, error) {
	claims := playerClaims{
		PlayerID:   playerID,
		MatchToken: matchToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(mm.config.MatchExpiryMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(mm.config.JWTSecret))
}

// VerifyPlayerToken validates a player token and returns the player ID it
// was issued for. The match token inside must agree with the one supplied.
func (mm *MatchManager) VerifyPlayerToken(tokenString, matchToken string) (string, error) {
	claims := &playerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(mm.config.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.MatchToken != matchToken {
		return "", errors.New("invalid player token")
	}
	return claims.PlayerID, nil
}

// QueuedPlayer is one entry waiting in the matchmaking queue.
type QueuedPlayer struct {
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	DBPlayerID  int       `json:"db_player_id"`
	QueuedAt    time.Time `json:"queued_at"`
}

// MatchResult is returned when queueing resolves into a match.
type MatchResult struct {
	Matched     bool   `json:"matched"`
	MatchToken  string `json:"match_token,omitempty"`
	PlayerID    string `json:"player_id,omitempty"`
	PlayerToken string `json:"player_token,omitempty"`
}

// JoinQueue puts a player in the FIFO queue and pairs them immediately if
// an opponent is already waiting. Pairing pops through redis so multiple
// nodes share one queue.
func (mm *MatchManager) JoinQueue(handle, displayName string) (*MatchResult, error) {
	ctx := context.Background()

	dbID, err := mm.ensurePlayer(handle, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure player: %w", err)
	}

	entry := QueuedPlayer{
		Handle:      handle,
		DisplayName: displayName,
		DBPlayerID:  dbID,
		QueuedAt:    time.Now(),
	}

	// Try to claim a waiting opponent first.
	raw, err := mm.rdb.LPop(ctx, queueKey).Result()
	if err == redis.Nil {
		data, _ := json.Marshal(entry)
		if err := mm.rdb.RPush(ctx, queueKey, data).Err(); err != nil {
			return nil, fmt.Errorf("failed to queue: %w", err)
		}
		mm.rdb.Expire(ctx, queueKey, time.Duration(mm.config.QueueExpiryMinutes)*time.Minute)
		log.Printf("[QUEUE] %s queued, waiting for opponent", handle)
		return &MatchResult{Matched: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue read failed: %w", err)
	}

	var opponent QueuedPlayer
	if err := json.Unmarshal([]byte(raw), &opponent); err != nil {
		return nil, fmt.Errorf("corrupt queue entry: %w", err)
	}
	if opponent.Handle == handle {
		// Same player re-queued; put the entry back and keep waiting.
		mm.rdb.LPush(ctx, queueKey, raw)
		return &MatchResult{Matched: false}, nil
	}

	match, err := mm.CreateMatch(opponent, entry)
	if err != nil {
		mm.rdb.LPush(ctx, queueKey, raw)
		return nil, err
	}

	// The waiting player polls for their credentials.
	mm.stashQueueResult(opponent.Handle, &MatchResult{
		Matched:     true,
		MatchToken:  match.Token,
		PlayerID:    match.Player1.ID,
		PlayerToken: match.Player1.PlayerToken,
	})

	log.Printf("[QUEUE] Paired %s vs %s -> match %s", opponent.Handle, handle, match.ID)
	return &MatchResult{
		Matched:     true,
		MatchToken:  match.Token,
		PlayerID:    match.Player2.ID,
		PlayerToken: match.Player2.PlayerToken,
	}, nil
}

// LeaveQueue removes a handle from the queue. Returns true when an entry
// was removed.
func (mm *MatchManager) LeaveQueue(handle string) bool {
	ctx := context.Background()
	entries, err := mm.rdb.LRange(ctx, queueKey, 0, -1).Result()
	if err != nil {
		return false
	}
	for _, raw := range entries {
		var qp QueuedPlayer
		if json.Unmarshal([]byte(raw), &qp) == nil && qp.Handle == handle {
			mm.rdb.LRem(ctx, queueKey, 1, raw)
			return true
		}
	}
	return false
}

// stashQueueResult parks match credentials for a player still polling the
// queue endpoint.
func (mm *MatchManager) stashQueueResult(handle string, result *MatchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	ttl := time.Duration(mm.config.QueueExpiryMinutes) * time.Minute
	if err := mm.rdb.Set(context.Background(), "queue_result:"+handle, data, ttl).Err(); err != nil {
		log.Printf("[QUEUE] Failed to stash result for %s: %v", handle, err)
	}
}

// CheckQueueResult returns and consumes the stashed match credentials for
// a handle, or a not-matched result when none exist yet.
func (mm *MatchManager) CheckQueueResult(handle string) (*MatchResult, error) {
	ctx := context.Background()
	raw, err := mm.rdb.GetDel(ctx, "queue_result:"+handle).Result()
	if err == redis.Nil {
		return &MatchResult{Matched: false}, nil
	}
	if err != nil {
		return nil, err
	}
	var result MatchResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("corrupt queue result: %w", err)
	}
	return &result, nil
}

// CreateTestMatch pairs two handles directly, bypassing the queue. Dev only.
func (mm *MatchManager) CreateTestMatch(handle1, handle2 string) (*Match, error) {
	id1, err := mm.ensurePlayer(handle1, handle1)
	if err != nil {
		return nil, err
	}
	id2, err := mm.ensurePlayer(handle2, handle2)
	if err != nil {
		return nil, err
	}

	return mm.CreateMatch(
		QueuedPlayer{Handle: handle1, DisplayName: handle1, DBPlayerID: id1, QueuedAt: time.Now()},
		QueuedPlayer{Handle: handle2, DisplayName: handle2, DBPlayerID: id2, QueuedAt: time.Now()},
	)
}

// QueueLength reports how many players are waiting.
func (mm *MatchManager) QueueLength() int {
	n, err := mm.rdb.LLen(context.Background(), queueKey).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

// CreateMatch creates the DB session row, the live match and both player
// tokens.
func (mm *MatchManager) CreateMatch(qp1, qp2 QueuedPlayer) (*Match, error) {
	matchID := generateMatchID()
	matchToken := generateToken(12)

	p1 := &MatchPlayer{
		ID:          "p_" + generateToken(10),
		Handle:      qp1.Handle,
		DBPlayerID:  qp1.DBPlayerID,
		DisplayName: qp1.DisplayName,
	}
	p2 := &MatchPlayer{
		ID:          "p_" + generateToken(10),
		Handle:      qp2.Handle,
		DBPlayerID:  qp2.DBPlayerID,
		DisplayName: qp2.DisplayName,
	}

	var err error
	if p1.PlayerToken, err = mm.issuePlayerToken(p1.ID, matchToken); err != nil {
		return nil, fmt.Errorf("failed to sign player token: %w", err)
	}
	if p2.PlayerToken, err = mm.issuePlayerToken(p2.ID, matchToken); err != nil {
		return nil, fmt.Errorf("failed to sign player token: %w", err)
	}

	match := NewMatch(matchID, matchToken, p1, p2, mm.config.MatchExpiryMinutes)

	var sessionID int
	err = mm.db.QueryRow(`
		INSERT INTO match_sessions (match_token, player1_id, player2_id, status, expiry_time)
		VALUES ($1, $2, $3, 'PENDING', $4)
		RETURNING id`,
		matchToken, p1.DBPlayerID, p2.DBPlayerID, match.ExpiresAt,
	).Scan(&sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert match session: %w", err)
	}
	match.SessionID = sessionID

	mm.mu.Lock()
	mm.matches[matchID] = match
	mm.byToken[matchToken] = match
	mm.mu.Unlock()

	mm.saveMatchToRedis(match)
	return match, nil
}

// GetMatchByToken looks a match up in memory, falling back to the redis
// snapshot for matches created on another node or before a restart.
func (mm *MatchManager) GetMatchByToken(token string) (*Match, error) {
	mm.mu.RLock()
	match, ok := mm.byToken[token]
	mm.mu.RUnlock()
	if ok {
		return match, nil
	}

	match, err := mm.loadMatchFromRedis(token)
	if err != nil {
		return nil, ErrMatchNotFound
	}

	mm.mu.Lock()
	mm.matches[match.ID] = match
	mm.byToken[match.Token] = match
	mm.mu.Unlock()
	return match, nil
}

// ActiveMatchCount returns the number of in-memory matches.
func (mm *MatchManager) ActiveMatchCount() int {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return len(mm.matches)
}

// MarkSessionStarted stamps the DB row when both players are in.
func (mm *MatchManager) MarkSessionStarted(sessionID int, startedAt time.Time) error {
	_, err := mm.db.Exec(`UPDATE match_sessions SET status='IN_PROGRESS', started_at=$1 WHERE id=$2`,
		startedAt, sessionID)
	return err
}

// RecordShot appends a row to the shot audit trail.
func (mm *MatchManager) RecordShot(sessionID, playerDBID, shotNumber int, ruling *ShotRuling, events []rules.ShotEvent) {
	if sessionID <= 0 || playerDBID <= 0 {
		return
	}

	summary := rules.Classify(events)
	pocketed := make([]string, 0, len(summary.Pocketed))
	for _, ball := range summary.Pocketed {
		pocketed = append(pocketed, fmt.Sprintf("%d", ball))
	}

	var fault sql.NullString
	if ruling.Outcome.Fault != "" {
		fault = sql.NullString{String: string(ruling.Outcome.Fault), Valid: true}
	}

	_, err := mm.db.Exec(`
		INSERT INTO shot_records (session_id, player_id, shot_number, outcome, fault, pocketed_balls, event_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sessionID, playerDBID, shotNumber, string(ruling.Outcome.Kind), fault,
		strings.Join(pocketed, ","), len(events))
	if err != nil {
		log.Printf("[DB] RecordShot failed for session %d: %v", sessionID, err)
	}
}

// SaveFinalMatchState writes the completed match back to postgres and
// bumps player stats.
func (mm *MatchManager) SaveFinalMatchState(m *Match) {
	if m.SessionID <= 0 {
		return
	}

	winner := m.GetPlayerByID(m.Winner)
	var winnerID sql.NullInt64
	if winner != nil && winner.DBPlayerID > 0 {
		winnerID = sql.NullInt64{Int64: int64(winner.DBPlayerID), Valid: true}
	}

	_, err := mm.db.Exec(`
		UPDATE match_sessions
		SET status='COMPLETED', winner_id=$1, win_type=$2, completed_at=NOW()
		WHERE id=$3`,
		winnerID, m.WinType, m.SessionID)
	if err != nil {
		log.Printf("[DB] SaveFinalMatchState failed for session %d: %v", m.SessionID, err)
		return
	}

	for _, p := range []*MatchPlayer{m.Player1, m.Player2} {
		if p.DBPlayerID <= 0 {
			continue
		}
		won := 0
		if winner != nil && p.ID == winner.ID {
			won = 1
		}
		if _, err := mm.db.Exec(`
			UPDATE players
			SET total_matches_played = total_matches_played + 1,
			    total_matches_won = total_matches_won + $1,
			    last_active = NOW()
			WHERE id=$2`, won, p.DBPlayerID); err != nil {
			log.Printf("[DB] Player stats update failed for %d: %v", p.DBPlayerID, err)
		}
	}

	mm.saveMatchToRedis(m)
	log.Printf("[DB] Match %s finalized, winner=%s, win_type=%s", m.ID, m.Winner, m.WinType)
}

// PublishMatchEvent fans an event out to all nodes over redis pub/sub.
func (mm *MatchManager) PublishMatchEvent(payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[MANAGER] Failed to marshal match event: %v", err)
		return
	}
	if err := mm.rdb.Publish(context.Background(), eventsChannel, data).Err(); err != nil {
		log.Printf("[MANAGER] Failed to publish match event: %v", err)
	}
}

// === Redis snapshots ===

// matchSnapshot is the redis persistence form of a Match. Player tokens
// are included so a rehydrated node can still authenticate clients.
type matchSnapshot struct {
	ID           string         `json:"id"`
	Token        string         `json:"token"`
	Player1      *MatchPlayer   `json:"player1"`
	Player2      *MatchPlayer   `json:"player2"`
	Player1Token string         `json:"player1_token"`
	Player2Token string         `json:"player2_token"`
	Session      *rules.Session `json:"session"`
	Status       MatchStatus    `json:"status"`
	Winner       string         `json:"winner,omitempty"`
	WinType      string         `json:"win_type,omitempty"`
	ShotNumber   int            `json:"shot_number"`
	SessionID    int            `json:"session_id"`
	ExpiresAt    time.Time      `json:"expires_at"`
	CreatedAt    time.Time      `json:"created_at"`
}

// SaveMatchToRedis snapshots a match after a state change.
func (mm *MatchManager) SaveMatchToRedis(m *Match) {
	mm.saveMatchToRedis(m)
}

func (mm *MatchManager) saveMatchToRedis(m *Match) {
	m.mu.RLock()
	snap := matchSnapshot{
		ID:           m.ID,
		Token:        m.Token,
		Player1:      m.Player1,
		Player2:      m.Player2,
		Player1Token: m.Player1.PlayerToken,
		Player2Token: m.Player2.PlayerToken,
		Session:      m.Session,
		Status:       m.Status,
		Winner:       m.Winner,
		WinType:      m.WinType,
		ShotNumber:   m.ShotNumber,
		SessionID:    m.SessionID,
		ExpiresAt:    m.ExpiresAt,
		CreatedAt:    m.CreatedAt,
	}
	m.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[REDIS] Failed to marshal match %s: %v", m.ID, err)
		return
	}

	ttl := time.Duration(mm.config.MatchExpiryMinutes) * time.Minute
	if err := mm.rdb.Set(context.Background(), matchKeyPrefix+m.Token, data, ttl).Err(); err != nil {
		log.Printf("[REDIS] Failed to save match %s: %v", m.ID, err)
	}
}

func (mm *MatchManager) loadMatchFromRedis(token string) (*Match, error) {
	raw, err := mm.rdb.Get(context.Background(), matchKeyPrefix+token).Result()
	if err != nil {
		return nil, err
	}

	var snap matchSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("corrupt match snapshot: %w", err)
	}

	snap.Player1.PlayerToken = snap.Player1Token
	snap.Player2.PlayerToken = snap.Player2Token

	match := &Match{
		ID:           snap.ID,
		Token:        snap.Token,
		Player1:      snap.Player1,
		Player2:      snap.Player2,
		Session:      snap.Session,
		Status:       snap.Status,
		Winner:       snap.Winner,
		WinType:      snap.WinType,
		ShotNumber:   snap.ShotNumber,
		SessionID:    snap.SessionID,
		ExpiresAt:    snap.ExpiresAt,
		CreatedAt:    snap.CreatedAt,
		LastActivity: time.Now(),
	}
	// Connections never survive a rehydrate.
	match.Player1.Connected = false
	match.Player2.Connected = false

	log.Printf("[REDIS] Rehydrated match %s (token=%s)", match.ID, token)
	return match, nil
}

// === Player rows ===

// ensurePlayer upserts a players row by handle and returns its ID.
func (mm *MatchManager) ensurePlayer(handle, displayName string) (int, error) {
	var id int
	err := mm.db.QueryRow(`
		INSERT INTO players (handle, display_name, last_active)
		VALUES ($1, $2, NOW())
		ON CONFLICT (handle)
		DO UPDATE SET last_active = NOW()
		RETURNING id`, handle, displayName).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// === Expiry worker ===

// StartExpiryChecker reaps idle and expired matches in the background.
func (mm *MatchManager) StartExpiryChecker(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mm.checkExpiredMatches()
			}
		}
	}()
}

func (mm *MatchManager) checkExpiredMatches() {
	now := time.Now()

	mm.mu.Lock()
	var expired []*Match
	for id, m := range mm.matches {
		status := m.GetStatus()
		if status == StatusCompleted || status == StatusCancelled || now.After(m.ExpiresAt) {
			if status != StatusCompleted && status != StatusCancelled {
				expired = append(expired, m)
			}
			delete(mm.matches, id)
			delete(mm.byToken, m.Token)
		}
	}
	mm.mu.Unlock()

	for _, m := range expired {
		log.Printf("[MANAGER] Match %s expired, cancelling", m.ID)
		m.mu.Lock()
		m.Status = StatusCancelled
		m.mu.Unlock()
		if _, err := mm.db.Exec(`UPDATE match_sessions SET status='CANCELLED' WHERE id=$1`, m.SessionID); err != nil {
			log.Printf("[DB] Failed to cancel session %d: %v", m.SessionID, err)
		}
		mm.PublishMatchEvent(map[string]interface{}{
			"type":        "match_cancelled",
			"match_token": m.Token,
			"match_id":    m.ID,
		})
	}
}
