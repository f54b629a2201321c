package fsstream

import (
	"fmt"
	"strconv"

	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
)

// PluginName is reported by the build info command.
const PluginName = "FS stream v1.00"

// onRealtimeReport adds the job progress to realtime reports.
func (p *Player) onRealtimeReport(r *machine.Report) {
	switch p.reg.Reader() {
	case stream.Reader(p.reader):
		r.WriteString("|SD:" + p.progress() + "," + p.name)
	case stream.Reader(p.await):
		r.WriteString("|SD:Pending")
	}
}

// progress returns the consumed share of the job in percent with one decimal. A job is never
// reported complete before the controller is idle.
func (p *Player) progress() string {
	pct := 100.0
	if p.size > 0 {
		pct = float64(p.pos) * 100 / float64(p.size)
	}

	s := strconv.FormatFloat(pct, 'f', 1, 64)
	if s == "100.0" && p.m.State() != machine.StateIdle {
		s = "99.9"
	}

	return s
}

func (p *Player) onReset(state machine.State, next func(machine.State)) {
	if p.phase != PhaseIdle {
		switch {
		case p.line > 0:
			p.m.Feedback(machine.Plain(fmt.Sprintf("Reset during streaming of file at line: %d", p.line)))
		case p.phase == PhaseAwaitResume:
			p.m.Feedback(machine.MsgNone)
		}
		p.metrics.incJobsTerminated()
		p.End(true)
	}

	next(state)
}

func (p *Player) onReportOptions(r *machine.OptionsReport) {
	r.NewOpts = append(r.NewOpts, "FS")
	r.Plugins = append(r.Plugins, PluginName)
}
