package stream

// Realtime command bytes recognised on every transport.
const (
	CmdStatusReport    byte = '?'
	CmdCycleStart      byte = '~'
	CmdFeedHold        byte = '!'
	CmdReset           byte = 0x18
	CmdStop            byte = 0x19
	CmdStatusReportAll byte = 0x87
	CmdSafetyDoor      byte = 0x84
	CmdJogCancel       byte = 0x85
	CmdToolAck         byte = 0xA3
)

// ASCII control bytes used by the line parser and the upload protocol.
const (
	ASCIISOH byte = 0x01
	ASCIISTX byte = 0x02
	ASCIIEOT byte = 0x04
	ASCIIACK byte = 0x06
	ASCIITab byte = 0x09
	ASCIILF  byte = 0x0A
	ASCIICR  byte = 0x0D
	ASCIINAK byte = 0x15
	ASCIICAN byte = 0x18
	ASCIIDEL byte = 0x7F
)

// EOL is the line terminator written by the controller.
const EOL = "\r\n"

// IsEOL reports whether c terminates a line.
func IsEOL(c byte) bool {
	return c == ASCIILF || c == ASCIICR
}
