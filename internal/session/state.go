package session

// State is a session's position in the one-way lifecycle of §3/§4.4:
// idle -> connecting -> handshaking -> connected -> closed. Error paths
// jump from any state directly into closed.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateHandshaking
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Mode selects the transport the session dials with (§4.2, §4.4).
type Mode int

const (
	ModeAES Mode = iota
	ModeTLSPSK
)

func (m Mode) String() string {
	if m == ModeTLSPSK {
		return "tls-psk"
	}
	return "aes"
}
