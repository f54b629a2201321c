package ymodem

import "sync/atomic"

// Metrics contains atomic counters of the upload receiver.
type Metrics struct {
	// TransfersStarted indicates the number of transfers started by a packet header byte.
	TransfersStarted atomic.Uint64
	// TransfersCompleted indicates the number of files received completely.
	TransfersCompleted atomic.Uint64
	// TransfersFailed indicates the number of transfers ended by an error.
	TransfersFailed atomic.Uint64
	// PacketsReceived indicates the number of valid packets received.
	PacketsReceived atomic.Uint64
	// PacketsRepeated indicates the number of retransmitted packets acknowledged without a write.
	PacketsRepeated atomic.Uint64
	// Purges indicates the number of corrupted packets.
	Purges atomic.Uint64
	// Timeouts indicates the number of receive timeouts.
	Timeouts atomic.Uint64
	// BytesWritten indicates the number of payload bytes written to files.
	BytesWritten atomic.Uint64
}

func (m *Metrics) incTransfersStarted() { m.TransfersStarted.Add(1) }
func (m *Metrics) incTransfersCompleted() { m.TransfersCompleted.Add(1) }
func (m *Metrics) incTransfersFailed() { m.TransfersFailed.Add(1) }
func (m *Metrics) incPacketsReceived() { m.PacketsReceived.Add(1) }
func (m *Metrics) incPacketsRepeated() { m.PacketsRepeated.Add(1) }
func (m *Metrics) incPurges() { m.Purges.Add(1) }
func (m *Metrics) incTimeouts() { m.Timeouts.Add(1) }
func (m *Metrics) addBytesWritten(n int) { m.BytesWritten.Add(uint64(n)) }
