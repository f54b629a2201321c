package fsstream

import "github.com/arloliu/go-fsstream/stream"

// suspend parks the job during a manual tool change. Input stays dropped until the tool change
// is acknowledged, after which the transport is read so the operator can jog.
func (p *Player) suspend(suspend bool) bool {
	if suspend {
		p.reg.SetReader(p.toolChange)
		p.reg.Transport().ResetReadBuffer()
		p.m.ToolAcknowledged()
		p.phase = PhaseSuspended
		p.logger.Debug("job suspended", "line", p.line)

		return true
	}

	p.reg.SetReader(p.reader)
	p.reg.SetInterceptor(p.reg.Drop)
	if p.phase == PhaseSuspended {
		p.phase = PhaseStreaming
	}
	p.logger.Debug("job resumed", "line", p.line)

	return true
}

type toolChangeReader struct {
	p *Player
}

func (r *toolChangeReader) ReadChar() int {
	p := r.p
	if !p.m.ToolAcknowledged() {
		return stream.NoData
	}

	t := p.reg.Transport()
	p.reg.SetReader(t)
	p.reg.SetInterceptor(p.reg.Forward)

	return t.ReadChar()
}
