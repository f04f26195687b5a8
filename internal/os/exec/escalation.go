package exec

// escalationState tracks the termination of a command. It only moves forward.
type escalationState int

const (
	stateRunning escalationState = iota
	stateTermSent
	stateKillSent
	stateReaped
)

func (state escalationState) String() string {
	switch state {
	case stateRunning:
		return "running"
	case stateTermSent:
		return "term sent"
	case stateKillSent:
		return "kill sent"
	case stateReaped:
		return "reaped"
	}

	return "unknown"
}
