package vm

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Program is a fully decoded and resolved binary: everything Load needs to
// read once and Runtime replays on every Reset.
type Program struct {
	Constants    []int32
	Kinds        []ConstantKind
	Instructions []Instruction
	Mapping      []int
}

// Runtime executes a decoded Program. It owns the operand stack, the call
// frame stack, the program counter and the I/O endpoints IN/OUT talk to.
// A Runtime is not safe for concurrent use; see spec.md §5.
type Runtime struct {
	program *Program

	stack  operandStack
	frames *frameStack
	pc     int

	finished bool
	err      error

	in  InputSource
	out OutputSink

	log zerolog.Logger

	// leaves maps a METHODHEADER instruction index to its straight-line
	// body (header exclusive, IRETURN inclusive), as produced by
	// internal/inliner.Analyze. Nil unless WithLeafBodies was passed to
	// Load; invoke() uses it to skip dispatch-loop re-entry per
	// instruction for calls into a known leaf method.
	leaves map[int][]Instruction

	// hook, if set, observes every instruction Step actually dispatches
	// (including ones executed via the inlining fast path). Used by
	// internal/instrument for opcode execution counters; nil by default
	// so a plain Load/Run pays nothing for it.
	hook Hook
}

// Hook observes instruction execution. See WithHook.
type Hook interface {
	OnExecute(pc int, op Bytecode)
}

// WithHook attaches an execution observer. Intended for optional
// instrumentation (see internal/instrument), never required for
// correctness.
func WithHook(h Hook) Option {
	return func(r *Runtime) { r.hook = h }
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithInput overrides IN's source. Defaults to os.Stdin.
func WithInput(in InputSource) Option {
	return func(r *Runtime) { r.in = in }
}

// WithOutput overrides OUT's sink. Defaults to os.Stdout.
func WithOutput(out OutputSink) Option {
	return func(r *Runtime) { r.out = out }
}

// WithLogger overrides the structured logger used for classification
// warnings. Defaults to a disabled logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runtime) { r.log = log }
}

// WithLeafBodies enables the optional inlining fast path: for an
// INVOKEVIRTUAL whose target header index is a key of leaves, the call
// executes the body in the same Step call that performed the call,
// skipping the dispatch loop's per-instruction re-entry. Correctness is
// unaffected: a real frame is still pushed and popped exactly as an
// ordinary call would. Pass the Body of each Leaf returned by
// internal/inliner.Analyze, keyed by the same header index.
func WithLeafBodies(leaves map[int][]Instruction) Option {
	return func(r *Runtime) { r.leaves = leaves }
}

// Load reads, classifies, decodes and resolves a binary from r, then
// returns a Runtime ready to Step or Run. This is the pipeline described in
// spec.md §4.1-§4.4.
func Load(r io.Reader, opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		in:  NewInputSource(os.Stdin),
		out: NewOutputSink(os.Stdout),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(rt)
	}

	constBlock, textBlock, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	constants := decodeConstants(constBlock)
	kinds := classifyConstants(rt.log, len(constants), textBlock.payload)

	instructions, mapping, err := decode(textBlock.payload, constants, kinds)
	if err != nil {
		return nil, err
	}

	if err := resolve(instructions, mapping, constants, kinds); err != nil {
		return nil, err
	}

	rt.program = &Program{
		Constants:    constants,
		Kinds:        kinds,
		Instructions: instructions,
		Mapping:      mapping,
	}
	rt.frames = newFrameStack()
	return rt, nil
}

// Reset rewinds execution to the first instruction with an empty stack and
// a single sentinel frame, without re-reading or re-decoding the binary.
// spec.md §8's reset-idempotence invariant requires this to be
// indistinguishable from a freshly Loaded runtime.
func (rt *Runtime) Reset() {
	rt.stack.reset()
	rt.frames.reset()
	rt.pc = 0
	rt.finished = false
	rt.err = nil
}

// IsFinished reports whether the runtime halted, ran off the end of the
// program, or trapped.
func (rt *Runtime) IsFinished() bool { return rt.finished }

// Err returns the trap that stopped execution, or nil if the runtime is
// still running or finished cleanly (HALT / ran off the end).
func (rt *Runtime) Err() error { return rt.err }

// ProgramCounter returns the index of the next instruction to execute.
func (rt *Runtime) ProgramCounter() int { return rt.pc }

// StackLen returns the current operand stack depth.
func (rt *Runtime) StackLen() int { return rt.stack.len() }

// PeekTop returns the value on top of the operand stack.
func (rt *Runtime) PeekTop() (int32, error) { return rt.stack.peek() }

// FrameDepth returns the number of call frames, including the sentinel
// bottom frame.
func (rt *Runtime) FrameDepth() int { return rt.frames.depth() }

// LoadLocal reads a local variable slot from the current call frame.
func (rt *Runtime) LoadLocal(index uint16) (int32, error) {
	return rt.frames.current().loadVar(index)
}

// Constants returns the decoded constant pool.
func (rt *Runtime) Constants() []int32 { return rt.program.Constants }

// Instructions returns the decoded, resolved program.
func (rt *Runtime) Instructions() []Instruction { return rt.program.Instructions }

// Run executes instructions until the program finishes or traps.
func (rt *Runtime) Run() error {
	for !rt.finished {
		if err := rt.Step(); err != nil {
			return err
		}
	}
	return rt.err
}

// Steps executes up to count instructions, stopping early if the program
// finishes or traps.
func (rt *Runtime) Steps(count int) error {
	for i := 0; i < count && !rt.finished; i++ {
		if err := rt.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the output sink if it buffers (NewOutputSink's default
// does). A sink installed via WithOutput that doesn't buffer is a no-op.
func (rt *Runtime) Flush() error {
	if f, ok := rt.out.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
