package similarity

// Level buckets a score into an advisory band.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

const (
	// HighThreshold is the lowest score reported as LevelHigh.
	HighThreshold = 0.85

	// MediumThreshold is the lowest score reported as LevelMedium.
	MediumThreshold = 0.60
)

var levelMessages = map[Level]string{
	LevelHigh:   "Images appear highly similar - likely the same vehicle",
	LevelMedium: "Cannot automatically verify vehicle identity - please manually confirm both images are of the same vehicle",
	LevelLow:    "Images appear significantly different - please verify you uploaded the correct vehicle images",
}

// LevelOf maps a score to its level. Bounds are inclusive.
func LevelOf(s Score) Level {
	switch {
	case s >= HighThreshold:
		return LevelHigh
	case s >= MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Message returns the user-facing advisory for a level.
func (l Level) Message() string {
	return levelMessages[l]
}

// Level returns the score's level.
func (s Score) Level() Level {
	return LevelOf(s)
}

// Message returns the advisory text for the score.
func Message(s Score) string {
	return LevelOf(s).Message()
}
