package sockclient

// State is the connection state of a Client.
type State int32

const (
	// StateDisconnected is the initial state and the state after any failure
	// or an explicit Disconnect.
	StateDisconnected State = iota

	// StateConnecting means the transport is being opened and the protocol
	// handshake is in progress.
	StateConnecting

	// StateConnected means the handshake succeeded and subscriptions are live.
	StateConnected
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
