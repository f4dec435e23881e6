// Package gesture maps raw blink counts to their semantic meaning.
package gesture

// Gesture is the classified meaning of a raw blink count.
type Gesture string

const (
	Ignore    Gesture = "ignore"
	Advance   Gesture = "advance"
	Select    Gesture = "select"
	Emergency Gesture = "emergency"
	Unknown   Gesture = "unknown"
)

// MinCount and MaxCount bound the valid blink-count range. Counts outside
// the range are rejected at the ingestion boundary and never classified.
const (
	MinCount = 1
	MaxCount = 10
)

// Valid reports whether a count is inside the accepted range.
func Valid(count int) bool {
	return count >= MinCount && count <= MaxCount
}

// Classify maps a validated blink count to a gesture. A single blink is
// stabilization noise. Only an exact count of 5 means emergency; higher
// counts are suppressed so a noisy burst cannot trigger a false alert.
func Classify(count int) Gesture {
	switch {
	case !Valid(count):
		return Unknown
	case count == 2:
		return Advance
	case count == 3:
		return Select
	case count == 5:
		return Emergency
	default:
		return Ignore
	}
}
