package models

import (
	"database/sql"
	"time"
)

// Player represents a registered player
type Player struct {
	ID                 int            `db:"id" json:"id"`
	Handle             string         `db:"handle" json:"handle"`
	DisplayName        string         `db:"display_name" json:"display_name"`
	PINHash            sql.NullString `db:"pin_hash" json:"-"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	LastActive         sql.NullTime   `db:"last_active" json:"last_active,omitempty"`
	TotalMatchesPlayed int            `db:"total_matches_played" json:"total_matches_played"`
	TotalMatchesWon    int            `db:"total_matches_won" json:"total_matches_won"`
	IsActive           bool           `db:"is_active" json:"is_active"`
}

// MatchSession represents one 8-ball match between two players
type MatchSession struct {
	ID          int            `db:"id" json:"id"`
	MatchToken  string         `db:"match_token" json:"match_token"`
	Player1ID   int            `db:"player1_id" json:"player1_id"`
	Player2ID   sql.NullInt64  `db:"player2_id" json:"player2_id,omitempty"`
	Status      string         `db:"status" json:"status"`
	WinnerID    sql.NullInt64  `db:"winner_id" json:"winner_id,omitempty"`
	WinType     sql.NullString `db:"win_type" json:"win_type,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	StartedAt   sql.NullTime   `db:"started_at" json:"started_at,omitempty"`
	CompletedAt sql.NullTime   `db:"completed_at" json:"completed_at,omitempty"`
	ExpiryTime  time.Time      `db:"expiry_time" json:"expiry_time"`
}

// ShotRecord is the audit trail row for one ruled shot
type ShotRecord struct {
	ID            int            `db:"id" json:"id"`
	SessionID     int            `db:"session_id" json:"session_id"`
	PlayerID      int            `db:"player_id" json:"player_id"`
	ShotNumber    int            `db:"shot_number" json:"shot_number"`
	Outcome       string         `db:"outcome" json:"outcome"`
	Fault         sql.NullString `db:"fault" json:"fault,omitempty"`
	PocketedBalls string         `db:"pocketed_balls" json:"pocketed_balls"`
	EventCount    int            `db:"event_count" json:"event_count"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}
