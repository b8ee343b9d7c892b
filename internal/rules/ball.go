package rules

// Group represents a ball group under 8-ball rules.
type Group string

const (
	GroupSolids  Group = "SOLIDS"
	GroupStripes Group = "STRIPES"
	GroupEight   Group = "EIGHT"
	GroupNone    Group = "" // cue ball, or no recognized contact
)

const (
	CueBall   = 0
	EightBall = 8
	NumBalls  = 16 // 0=cue, 1-7=solids, 8=eight, 9-15=stripes

	// GroupSize is the number of object balls in a player's group.
	GroupSize = 7

	// BreakRailMinimum is the number of distinct balls that must reach a
	// rail for a break with no pockets to be legal.
	BreakRailMinimum = 4
)

// BallGroup returns the group a ball number belongs to.
// The cue ball (0) and out-of-range numbers map to GroupNone.
func BallGroup(ball int) Group {
	switch {
	case ball >= 1 && ball <= 7:
		return GroupSolids
	case ball == EightBall:
		return GroupEight
	case ball >= 9 && ball <= 15:
		return GroupStripes
	}
	return GroupNone
}
