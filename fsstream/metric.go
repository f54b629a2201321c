package fsstream

import "sync/atomic"

// Metrics contains atomic counters of the job player.
type Metrics struct {
	// JobsStarted indicates the number of jobs started.
	JobsStarted atomic.Uint64
	// JobsCompleted indicates the number of jobs that reached their program end.
	JobsCompleted atomic.Uint64
	// JobsFailed indicates the number of jobs ended by an error status.
	JobsFailed atomic.Uint64
	// JobsTerminated indicates the number of jobs ended by a transport change or a reset.
	JobsTerminated atomic.Uint64
	// Rewinds indicates the number of times a job was rewound for another run.
	Rewinds atomic.Uint64
	// BytesRead indicates the number of bytes read from job files.
	BytesRead atomic.Uint64
	// LinesRead indicates the number of lines read from job files.
	LinesRead atomic.Uint64
}

func (m *Metrics) incJobsStarted() { m.JobsStarted.Add(1) }
func (m *Metrics) incJobsCompleted() { m.JobsCompleted.Add(1) }
func (m *Metrics) incJobsFailed() { m.JobsFailed.Add(1) }
func (m *Metrics) incJobsTerminated() { m.JobsTerminated.Add(1) }
func (m *Metrics) incRewinds() { m.Rewinds.Add(1) }
func (m *Metrics) incBytesRead() { m.BytesRead.Add(1) }
func (m *Metrics) incLinesRead() { m.LinesRead.Add(1) }
