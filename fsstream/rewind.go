package fsstream

import (
	"bufio"
	"fmt"
	"io"

	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
)

// Rewind arms rewind mode: the next program end of the current or next job rewinds the file and
// waits for cycle start instead of ending the job. Ending a job or listing files disarms it.
func (p *Player) Rewind() { p.rewind = true }

// Rewinding reports whether rewind mode is armed.
func (p *Player) Rewinding() bool { return p.rewind }

func (p *Player) onProgramCompleted(e machine.ProgramEnd, next func(machine.ProgramEnd)) {
	rewind := p.rewind || (e.Flow == machine.ProgramFlowCompletedM2 && p.cfg.rewindOnM2)
	if rewind && p.cfg.webUIRewindGuard && p.reg.WebUIConnected() {
		rewind = false
	}
	p.rewind = rewind
	p.metrics.incJobsCompleted()

	if rewind {
		if err := p.rewindFile(); err != nil {
			p.logger.Warn("rewind failed", "path", p.path, "error", err)
			p.End(true)
		}
	} else {
		p.End(true)
	}

	next(e)
}

// rewindFile positions the job at its first byte and parks the input on a stub reader until
// the next cycle start.
func (p *Player) rewindFile() error {
	if p.file == nil {
		f, err := p.fs.Open(p.path)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOpenFailed, err)
		}
		p.file = f
		p.reg.AttachFile(f)
	} else if _, err := p.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	p.rd = bufio.NewReader(p.file)
	p.resetPosition()

	p.reg.SetReader(p.await)
	if p.cycleStart == nil {
		p.cycleStart = p.m.Hooks().CycleStart.Install(p.onCycleStart)
	}
	p.phase = PhaseAwaitResume
	p.m.AddTask(func() { p.m.Feedback(machine.MsgCycleStartToRerun) })

	p.metrics.incRewinds()
	p.logger.Info("job rewound", "path", p.path)

	return nil
}

func (p *Player) onCycleStart(state machine.State, next func(machine.State)) {
	if p.reg.Reader() == stream.Reader(p.await) {
		p.reg.SetReader(p.reader)
		p.phase = PhaseStreaming
	}
	p.cycleStart.Remove()
	p.cycleStart = nil

	next(state)
}

// awaitReader holds the input while a rewound job waits for cycle start.
type awaitReader struct {
	p *Player
}

func (*awaitReader) ReadChar() int { return stream.NoData }
