package stream

// Kind identifies the type of a character stream endpoint.
type Kind uint8

const (
	KindNull Kind = iota
	KindSerial
	KindMPG
	KindBridge
	KindTelnet
	KindWebSocket
	KindFile
	KindRedirected
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindSerial:
		return "serial"
	case KindMPG:
		return "mpg"
	case KindBridge:
		return "bridge"
	case KindTelnet:
		return "telnet"
	case KindWebSocket:
		return "websocket"
	case KindFile:
		return "file"
	case KindRedirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// ParseKind converts a name returned by Kind.String back to a Kind.
func ParseKind(name string) (Kind, bool) {
	for k := KindNull; k <= KindRedirected; k++ {
		if k.String() == name {
			return k, true
		}
	}

	return KindNull, false
}
