package domain

// SessionState is the lifecycle state of a stream session.
type SessionState int32

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateSubscribed
	StateTerminated
)

// String returns the string representation of SessionState.
func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
