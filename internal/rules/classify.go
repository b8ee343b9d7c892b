package rules

// ShotSummary is the classifier's digest of one shot's event stream.
type ShotSummary struct {
	// Pocketed lists pocketed balls in event order; a scratch contributes
	// the cue ball (0) as a pseudo-entry.
	Pocketed []int

	Scratched     bool
	EightPocketed bool

	// FirstContactGroup is the group of the first object ball the cue
	// struck, recognized only when a later rail or pocket contact followed.
	// GroupNone means the shot has no legally recognized contact.
	FirstContactGroup Group

	// RailContacts holds the distinct object ball numbers that touched a
	// rail; the break's four-rail requirement is tested against its size.
	RailContacts map[int]bool

	// OffTable lists object balls (eight excluded) knocked off the table.
	OffTable []int

	EightOffTable bool
}

// Classify partitions the time-ordered events of one shot. An empty list
// means the cue struck nothing and classifies to an empty summary.
func Classify(events []ShotEvent) ShotSummary {
	summary := ShotSummary{
		FirstContactGroup: GroupNone,
		RailContacts:      make(map[int]bool),
	}

	firstContact := -1 // index of the first CUE_HIT_BALL, -1 until seen

	for i, e := range events {
		switch e.Type {
		case EventCueHitBall:
			if firstContact < 0 {
				firstContact = i
			}
		case EventBallToPocket:
			summary.Pocketed = append(summary.Pocketed, e.Ball)
			if e.Ball == EightBall {
				summary.EightPocketed = true
			}
			if e.Ball == CueBall {
				summary.Scratched = true
			}
		case EventBallToWall:
			summary.RailContacts[e.Ball] = true
		case EventBallOffTable:
			switch e.Ball {
			case EightBall:
				summary.EightOffTable = true
			case CueBall:
				summary.Scratched = true
			default:
				summary.OffTable = append(summary.OffTable, e.Ball)
			}
		case EventScratch:
			summary.Scratched = true
			summary.Pocketed = append(summary.Pocketed, CueBall)
		}
	}

	// The first contact counts only if the cue drove something to a rail
	// or pocket afterwards; contact with no consequence is not recognized.
	if firstContact >= 0 {
		for _, e := range events[firstContact+1:] {
			if e.Type == EventCueHitWall || e.Type == EventBallToWall || e.Type == EventBallToPocket {
				summary.FirstContactGroup = BallGroup(events[firstContact].Ball)
				break
			}
		}
	}

	return summary
}

// objectPocketed returns the pocketed object balls, dropping the cue
// pseudo-entry and the eight ball.
func (sum ShotSummary) objectPocketed() []int {
	var balls []int
	for _, b := range sum.Pocketed {
		if b == CueBall || b == EightBall {
			continue
		}
		balls = append(balls, b)
	}
	return balls
}
