package sampler

// State is the sampler loop lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateSampling
	StatePublishing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSampling:
		return "sampling"
	case StatePublishing:
		return "publishing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
