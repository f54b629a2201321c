package fsstream

import (
	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
)

var msgJobTerminated = machine.Info("Job terminated due to connection change")

// onStreamChanged handles a transport change while a job is active.
//
// A job started from a WebUI session keeps running when the session reconnects or another
// transport takes over, as long as the newcomer only sends realtime commands. Any other change
// terminates the job.
func (p *Player) onStreamChanged(kind stream.Kind, next func(stream.Kind)) {
	if kind == stream.KindFile || p.phase == PhaseIdle || p.terminating.Load() {
		next(kind)
		return
	}

	if p.webui && (kind != stream.KindWebSocket || p.reg.WebUIConnected()) {
		p.logger.Info("transport changed, job continues", "kind", kind)

		if stream.EndpointOf(p.reg.Transport()).Suspend != nil {
			p.reg.SetSuspend(p.suspend)
		} else {
			p.reg.SetSuspend(nil)
		}

		switch {
		case p.phase == PhaseSuspended && p.reg.Reader() != stream.Reader(p.toolChange):
			p.reg.SetReader(p.reg.Transport())
			p.reg.SetInterceptor(p.reg.Forward)
		case kind == stream.KindWebSocket:
			p.reg.SetInterceptor(p.reg.Drop)
		default:
			p.reg.SetInterceptor(p.checkInput)
		}
	} else {
		p.logger.Warn("transport changed, terminating job", "kind", kind, "line", p.line)
		p.terminating.Store(true)
		p.phase = PhaseTerminating
		p.m.AddTask(p.terminate)
	}

	next(kind)
}

// checkInput runs on the reception path of a transport that took over a running job. Realtime
// commands pass; the first other byte terminates the job and is kept as input.
func (p *Player) checkInput(c byte) bool {
	if p.reg.Forward(c) {
		return true
	}

	if p.terminating.CompareAndSwap(false, true) {
		p.m.AddTask(p.terminate)
	}

	return false
}

// terminate stops motion, ends the job without discarding transport input and informs the
// operator.
func (p *Player) terminate() {
	if p.phase == PhaseIdle {
		p.terminating.Store(false)
		return
	}
	p.phase = PhaseTerminating

	if p.m.State().Is(machine.StateCycle) {
		p.m.SetExecFlag(machine.ExecMotionCancel)
		// the file stays attached until motion has stopped or an abort was seen
		for p.m.ExecuteRealtime() && p.m.State() != machine.StateIdle {
		}
	}

	p.m.KeepInput()
	p.m.SetExecFlag(machine.ExecStop)
	p.End(false)
	p.m.Feedback(msgJobTerminated)
	p.metrics.incJobsTerminated()
}
