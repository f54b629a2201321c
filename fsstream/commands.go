package fsstream

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
)

func (p *Player) commands() []machine.Command {
	return []machine.Command{
		{Name: "F", Run: p.cmdFileFiltered, Help: "list streamable files, or run file with $F=<path>"},
		{Name: "F+", Run: p.cmdFileAll, Help: "list all files, or run file with $F+=<path>"},
		{Name: "FR", Run: p.cmdRewind, NoArgs: true, Help: "enable rewind mode for the next program end"},
		{Name: "FD", Run: p.cmdDelete, Help: "delete file with $FD=<path>"},
		{Name: "F<", Run: p.cmdDump, Help: "output file content with $F<=<path>"},
	}
}

func (p *Player) cmdFileFiltered(state machine.State, args string) machine.Status {
	return p.cmdFile(state, args, true)
}

func (p *Player) cmdFileAll(state machine.State, args string) machine.Status {
	return p.cmdFile(state, args, false)
}

func (p *Player) cmdFile(state machine.State, args string, filtered bool) machine.Status {
	if args == "" {
		p.rewind = false
		return StatusOf(p.List(p.reg, filtered))
	}

	return p.run(state, args)
}

// run starts a job, or changes the working directory when args names a directory.
func (p *Player) run(state machine.State, args string) machine.Status {
	if !p.mounted {
		return machine.StatusFsNotMounted
	}
	if !startable(state) {
		return machine.StatusSystemGClock
	}

	if p.isDirRequest(args) {
		if err := p.fs.Chdir(args); err != nil {
			return machine.StatusFsDirNotFound
		}

		return machine.StatusOK
	}

	return StatusOf(p.Start(args))
}

func (p *Player) isDirRequest(name string) bool {
	if strings.HasSuffix(name, "/") || name == ".." || strings.HasSuffix(name, "/..") {
		return true
	}
	fi, err := p.fs.Stat(p.fs.Abs(name))

	return err == nil && fi.IsDir()
}

func (p *Player) cmdRewind(machine.State, string) machine.Status {
	p.Rewind()
	return machine.StatusOK
}

func (p *Player) cmdDelete(state machine.State, args string) machine.Status {
	if args == "" {
		return machine.StatusGcodeValueWordMissing
	}
	if !startable(state) {
		return machine.StatusSystemGClock
	}

	return StatusOf(p.Delete(args))
}

func (p *Player) cmdDump(state machine.State, args string) machine.Status {
	if args == "" {
		return machine.StatusGcodeValueWordMissing
	}
	if !startable(state) {
		return machine.StatusSystemGClock
	}

	return StatusOf(p.Dump(p.reg, args))
}

// Delete removes the file name.
func (p *Player) Delete(name string) error {
	if !p.mounted {
		return ErrNotMounted
	}
	if p.readOnly {
		return ErrReadOnly
	}

	abs := p.fs.Abs(name)
	if p.phase != PhaseIdle && abs == p.path {
		return ErrBusy
	}
	if err := p.fs.Remove(abs); err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	p.logger.Info("file deleted", "path", abs)

	return nil
}

// Dump writes the content of name to w with every run of line terminators replaced by a
// single CRLF.
func (p *Player) Dump(w io.Writer, name string) error {
	if !p.mounted {
		return ErrNotMounted
	}
	if p.phase != PhaseIdle {
		return ErrBusy
	}

	f, err := p.fs.Open(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	bw := bufio.NewWriter(w)
	eol, n := 0, 0
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if stream.IsEOL(c) {
			eol++
			if eol == 1 {
				_, _ = bw.WriteString(stream.EOL)
			}

			continue
		}
		eol = 0
		n++
		_ = bw.WriteByte(c)
	}
	if eol == 0 && n > 0 {
		_, _ = bw.WriteString(stream.EOL)
	}

	return bw.Flush()
}
