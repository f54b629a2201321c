package fsstream

import (
	"fmt"

	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
)

// trapStatus swallows the "ok" of lines read from the job file. The first error ends the job
// and is forwarded once, prefixed by the line it occurred at.
func (p *Player) trapStatus(s machine.Status, next func(machine.Status) machine.Status) machine.Status {
	if p.reg.Reader() != stream.Reader(p.reader) {
		return next(s)
	}
	if s == machine.StatusOK {
		return s
	}

	line := p.line
	p.m.Write(fmt.Sprintf("error:%d in SD file at line %d%s", uint8(s), line, stream.EOL))
	p.logger.Warn("job failed", "path", p.path, "line", line, "status", s)
	p.metrics.incJobsFailed()
	p.End(true)

	return next(s)
}
