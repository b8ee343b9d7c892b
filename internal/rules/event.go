package rules

// ShotEventType identifies a physical contact observed during one shot.
type ShotEventType string

const (
	EventCueHitBall   ShotEventType = "CUE_HIT_BALL"
	EventCueHitWall   ShotEventType = "CUE_HIT_WALL"
	EventBallToPocket ShotEventType = "BALL_TO_POCKET"
	EventBallToWall   ShotEventType = "BALL_TO_WALL"
	EventBallOffTable ShotEventType = "BALL_OFF_TABLE"
	EventScratch      ShotEventType = "SCRATCH"
)

// ShotEvent is one contact reported by the physics collaborator.
// At is the contact time in milliseconds on the caller's clock; events in
// one shot must arrive strictly ordered by At (ties are the caller's
// problem to resolve, never this package's).
type ShotEvent struct {
	Type ShotEventType `json:"type"`
	Ball int           `json:"ball,omitempty"`
	At   int64         `json:"at"`
}

// CueHitBall records the cue ball striking an object ball.
func CueHitBall(at int64, ball int) ShotEvent {
	return ShotEvent{Type: EventCueHitBall, Ball: ball, At: at}
}

// CueHitWall records the cue ball touching a cushion.
func CueHitWall(at int64) ShotEvent {
	return ShotEvent{Type: EventCueHitWall, Ball: CueBall, At: at}
}

// BallFellInPocket records an object ball dropping into a pocket.
func BallFellInPocket(at int64, ball int) ShotEvent {
	return ShotEvent{Type: EventBallToPocket, Ball: ball, At: at}
}

// BallHitWall records an object ball touching a cushion.
func BallHitWall(at int64, ball int) ShotEvent {
	return ShotEvent{Type: EventBallToWall, Ball: ball, At: at}
}

// BallOffTable records a ball leaving the playing surface.
func BallOffTable(at int64, ball int) ShotEvent {
	return ShotEvent{Type: EventBallOffTable, Ball: ball, At: at}
}

// Scratch records the cue ball being pocketed or leaving the table.
func Scratch(at int64) ShotEvent {
	return ShotEvent{Type: EventScratch, Ball: CueBall, At: at}
}

// SessionEventType identifies a session-level event in the match log.
type SessionEventType string

const (
	EventRacked                     SessionEventType = "RACKED"
	EventBallPlacedBehindHeadString SessionEventType = "BALL_PLACED_BEHIND_HEAD_STRING"
	EventBallPlacedInHand           SessionEventType = "BALL_PLACED_IN_HAND"
	EventEightBallSpotted           SessionEventType = "EIGHT_BALL_SPOTTED"
	EventShot                       SessionEventType = "SHOT"
	EventGameOver                   SessionEventType = "GAME_OVER"
)

// SessionEvent is one entry in the session's append-only log.
type SessionEvent struct {
	Type SessionEventType `json:"type"`
	At   int64            `json:"at"`
	Shot []ShotEvent      `json:"shot,omitempty"`
}
