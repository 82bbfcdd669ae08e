package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Debugger drives a Runtime one instruction at a time from an interactive
// terminal, printing state after each step and honoring breakpoints on
// instruction indices. It puts stdin into raw mode so single keystrokes
// (n, r, q) don't need a trailing newline, restoring it on Close.
type Debugger struct {
	rt      *Runtime
	out     io.Writer
	fd      int
	oldTerm *term.State
	raw     bool

	breakpoints map[int]struct{}
}

// NewDebugger wraps rt for interactive stepping. out receives state dumps;
// pass os.Stdout for a real terminal session.
func NewDebugger(rt *Runtime, out io.Writer) *Debugger {
	return &Debugger{rt: rt, out: out, breakpoints: make(map[int]struct{})}
}

// EnterRawMode puts stdin into raw mode for single-keystroke commands. Not
// required for RunSession use from a script or test.
func (d *Debugger) EnterRawMode() error {
	d.fd = int(os.Stdin.Fd())
	old, err := term.MakeRaw(d.fd)
	if err != nil {
		return err
	}
	d.oldTerm = old
	d.raw = true
	return nil
}

// Close restores the terminal if EnterRawMode succeeded.
func (d *Debugger) Close() error {
	if !d.raw {
		return nil
	}
	d.raw = false
	return term.Restore(d.fd, d.oldTerm)
}

func (d *Debugger) printState() {
	in := d.rt.ProgramCounter()
	if in < len(d.rt.program.Instructions) {
		fmt.Fprintf(d.out, "-> [%d] %s\n", in, d.rt.program.Instructions[in])
	}
	fmt.Fprintf(d.out, "   stack depth %d, frame depth %d\n", d.rt.StackLen(), d.rt.FrameDepth())
}

// toggleBreakpoint adds or removes a breakpoint on the given instruction
// index, returning whether it is now set.
func (d *Debugger) toggleBreakpoint(instr int) bool {
	if _, ok := d.breakpoints[instr]; ok {
		delete(d.breakpoints, instr)
		return false
	}
	d.breakpoints[instr] = struct{}{}
	return true
}

// RunSession reads commands from in ("n"/"next" to single-step, "r"/"run"
// to free-run until a breakpoint or finish, "b <n>" to toggle a breakpoint,
// "q"/"quit" to stop) until the program finishes, traps, or the session is
// quit. When the Debugger is in raw mode (EnterRawMode succeeded), commands
// are read one keystroke at a time with no trailing Enter; "b <n>" needs a
// typed argument, so breakpoints can only be toggled in line mode.
func (d *Debugger) RunSession(in io.Reader) error {
	reader := bufio.NewReader(in)
	if d.raw {
		fmt.Fprintln(d.out, "commands: n, r, q (raw mode: no breakpoints)")
	} else {
		fmt.Fprintln(d.out, "commands: n(ext), r(un), b(reak) <instr>, q(uit)")
	}
	d.printState()

	running := false
	for !d.rt.IsFinished() {
		if running {
			if _, ok := d.breakpoints[d.rt.ProgramCounter()]; ok {
				running = false
				fmt.Fprintln(d.out, "breakpoint")
				d.printState()
				continue
			}
			if err := d.rt.Step(); err != nil {
				return d.reportTrap(err)
			}
			continue
		}

		line, err := d.readCommand(reader)
		if err != nil {
			return nil
		}

		switch {
		case line == "n" || line == "next":
			if err := d.rt.Step(); err != nil {
				return d.reportTrap(err)
			}
			d.printState()
		case line == "r" || line == "run":
			running = true
		case line == "q" || line == "quit":
			return nil
		case strings.HasPrefix(line, "b"):
			arg := strings.TrimSpace(strings.TrimPrefix(line, "b"))
			instr, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintln(d.out, "usage: b <instruction index>")
				continue
			}
			if d.toggleBreakpoint(instr) {
				fmt.Fprintf(d.out, "breakpoint set at %d\n", instr)
			} else {
				fmt.Fprintf(d.out, "breakpoint cleared at %d\n", instr)
			}
		default:
			fmt.Fprintln(d.out, "unrecognized command")
		}
	}

	if d.rt.Err() != nil {
		return d.reportTrap(d.rt.Err())
	}
	fmt.Fprintln(d.out, "program finished")
	return nil
}

// readCommand reads one command from reader: a single keystroke in raw
// mode, a full line otherwise.
func (d *Debugger) readCommand(reader *bufio.Reader) (string, error) {
	if d.raw {
		b, err := reader.ReadByte()
		if err != nil {
			return "", err
		}
		return strings.ToLower(string(b)), nil
	}

	fmt.Fprint(d.out, "-> ")
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(strings.ToLower(line)), nil
}

func (d *Debugger) reportTrap(err error) error {
	pc := d.rt.ProgramCounter()
	fmt.Fprintf(d.out, "trap: %v at instruction %d\n", err, pc)
	return err
}
