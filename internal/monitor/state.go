package monitor

// State tracks one RIN through a run. Success is a straight line to
// Recorded; Failed is terminal from anywhere.
type State int

const (
	StatePending State = iota
	StateFetched
	StateCompared
	StateRecorded
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetched:
		return "fetched"
	case StateCompared:
		return "compared"
	case StateRecorded:
		return "recorded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
