package walker

// State is the lifecycle state of a walker.
type State int

const (
	// Idle walkers have not been spawned yet.
	Idle State = iota
	// Running walkers are consuming their queue.
	Running
	// Paused walkers keep their queue until Resume.
	Paused
	// Done walkers drained their queue and ran their exit hooks.
	Done
	// Errored walkers were stopped by a traversal fault. Exit hooks still ran.
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Done:
		return "done"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// control is the traversal outcome a hook requested.
type control int

const (
	proceed control = iota
	pause
	skip
	disengage
)
