package machine

// MessageKind classifies a feedback message.
type MessageKind uint8

const (
	MessagePlain MessageKind = iota
	MessageInfo
	MessageWarning
)

// Message is a feedback message sent to the operator.
type Message struct {
	Kind MessageKind
	Text string
}

// Predefined feedback messages.
var (
	MsgNone              = Message{Kind: MessagePlain}
	MsgProgramEnd        = Message{Kind: MessagePlain, Text: "Pgm End"}
	MsgCycleStartToRerun = Message{Kind: MessagePlain, Text: "Press cycle start to rerun job"}
	MsgCheckModeEnabled  = Message{Kind: MessagePlain, Text: "Enabled"}
	MsgCheckModeDisabled = Message{Kind: MessagePlain, Text: "Disabled"}
	MsgToolChangePending = Message{Kind: MessagePlain, Text: "Tool change pending"}
)

// Info returns an informational message.
func Info(text string) Message { return Message{Kind: MessageInfo, Text: text} }

// Warning returns a warning message.
func Warning(text string) Message { return Message{Kind: MessageWarning, Text: text} }

// Plain returns a message without a prefix.
func Plain(text string) Message { return Message{Kind: MessagePlain, Text: text} }

// Format returns the wire form of the message without the line terminator.
func (m Message) Format() string {
	switch m.Kind {
	case MessageInfo:
		return "[MSG:Info: " + m.Text + "]"
	case MessageWarning:
		return "[MSG:Warning: " + m.Text + "]"
	default:
		return "[MSG:" + m.Text + "]"
	}
}
