package vm

/*
	dfvm executes binaries for the 0x1DEADFAD teaching VM: a stack machine
	whose instructions operate on a 32-bit signed operand stack and a stack
	of call frames, each frame owning its own local variable slots.

	Programs are two length-prefixed blocks (constants, text) behind a
	4-byte magic header. Most opcodes need no operand; the handful that do
	encode it directly in the text stream (1, 2 or 4 bytes, always
	big-endian). See Bytecode.IsBranch and decode.go for how WIDE extends
	ILOAD/ISTORE/IINC to a u16 local index.

	Bytecode values and their mnemonics below are bit-exact with the
	reference encoding; do not renumber them.
*/

// Bytecode identifies a single opcode byte in the text pool.
type Bytecode byte

const (
	Nop    Bytecode = 0x00
	Bipush Bytecode = 0x10
	LdcW   Bytecode = 0x13
	Iload  Bytecode = 0x15

	Istore Bytecode = 0x36

	Iadd Bytecode = 0x60
	Isub Bytecode = 0x64
	Iand Bytecode = 0x7E
	Ior  Bytecode = 0xB0

	Dup  Bytecode = 0x59
	Pop  Bytecode = 0x57
	Swap Bytecode = 0x5F

	Iinc Bytecode = 0x84

	Ifeq     Bytecode = 0x99
	Iflt     Bytecode = 0x9B
	IfIcmpeq Bytecode = 0x9F
	Goto     Bytecode = 0xA7

	Ireturn       Bytecode = 0xAC
	Invokevirtual Bytecode = 0xB6

	Wide Bytecode = 0xC4

	In   Bytecode = 0xFC
	Out  Bytecode = 0xFD
	Err  Bytecode = 0xFE
	Halt Bytecode = 0xFF

	// Reserved per spec.md Non-goals: the decoder must recognize these
	// bytes well enough not to misparse a program that contains them, but
	// the engine never has to execute them.
	Newarray   Bytecode = 0xD1
	Iaload     Bytecode = 0xD2
	Iastore    Bytecode = 0xD3
	Gc         Bytecode = 0xD4
	Netbind    Bytecode = 0xE1
	Netconnect Bytecode = 0xE2
	Netin      Bytecode = 0xE3
	Netout     Bytecode = 0xE4
	Netclose   Bytecode = 0xE5
)

var bytecodeNames = map[Bytecode]string{
	Nop:           "nop",
	Bipush:        "bipush",
	LdcW:          "ldc_w",
	Iload:         "iload",
	Istore:        "istore",
	Iadd:          "iadd",
	Isub:          "isub",
	Iand:          "iand",
	Ior:           "ior",
	Dup:           "dup",
	Pop:           "pop",
	Swap:          "swap",
	Iinc:          "iinc",
	Ifeq:          "ifeq",
	Iflt:          "iflt",
	IfIcmpeq:      "if_icmpeq",
	Goto:          "goto",
	Ireturn:       "ireturn",
	Invokevirtual: "invokevirtual",
	Wide:          "wide",
	In:            "in",
	Out:           "out",
	Err:           "err",
	Halt:          "halt",
	Newarray:      "newarray",
	Iaload:        "iaload",
	Iastore:       "iastore",
	Gc:            "gc",
	Netbind:       "netbind",
	Netconnect:    "netconnect",
	Netin:         "netin",
	Netout:        "netout",
	Netclose:      "netclose",
	MethodHeader:  "methodheader",
}

// String renders a bytecode the way the teacher renders its own opcodes,
// for use in disassembly and error messages.
func (b Bytecode) String() string {
	if s, ok := bytecodeNames[b]; ok {
		return s
	}
	return "?unknown?"
}

// IsReserved reports whether b is a Non-goal opcode the decoder must
// recognize (to keep the byte stream in sync) but the engine never executes.
func (b Bytecode) IsReserved() bool {
	switch b {
	case Newarray, Iaload, Iastore, Gc, Netbind, Netconnect, Netin, Netout, Netclose:
		return true
	default:
		return false
	}
}

// IsBranch reports whether b carries a signed 16-bit byte offset resolved
// by the resolver into an instruction index (see resolve.go).
func (b Bytecode) IsBranch() bool {
	switch b {
	case Goto, Ifeq, Iflt, IfIcmpeq:
		return true
	default:
		return false
	}
}
