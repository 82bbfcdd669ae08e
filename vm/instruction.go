package vm

import "fmt"

// Instruction is one decoded unit of text. Only the fields relevant to Op
// are meaningful; this mirrors the tagged union `MemoryBlock` from the
// reference implementation, flattened into a single struct because Go has
// no sum types with payloads.
type Instruction struct {
	Op Bytecode

	// IntArg holds BIPUSH's sign-extended byte and LDC_W's resolved
	// constant value.
	IntArg int32

	// Local holds the local variable index for ILOAD, ISTORE, IINC and
	// their WIDE forms.
	Local uint16

	// Delta holds IINC's addend, already widened to i32 without sign
	// extension (spec.md §9 design note).
	Delta int32

	// Target holds the resolved instruction index for GOTO/IFEQ/IFLT/
	// IF_ICMPEQ/INVOKEVIRTUAL once the resolver has run. For branches it
	// is pre-decremented by one (see resolve.go); for INVOKEVIRTUAL it
	// points directly at the METHODHEADER instruction.
	Target int

	// Unresolved is true between decode and resolve for branch/call
	// instructions; the resolver clears it.
	Unresolved bool

	// rawOffset/rawConstIdx are the placeholder payloads the resolver
	// consumes; byteOffset is the text offset of the opcode byte, needed
	// to find this instruction's row in the byte->instruction mapping.
	rawOffset   int16
	rawConstIdx uint16
	byteOffset  int

	// NArgs/NVars hold METHODHEADER's declared argument and local counts.
	NArgs uint16
	NVars uint16
}

func (in Instruction) String() string {
	switch in.Op {
	case Bipush:
		return fmt.Sprintf("bipush %d", in.IntArg)
	case LdcW:
		return fmt.Sprintf("ldc_w %d", in.IntArg)
	case Iload, Istore:
		return fmt.Sprintf("%s %d", in.Op, in.Local)
	case Iinc:
		return fmt.Sprintf("iinc %d %d", in.Local, in.Delta)
	case Goto, Ifeq, Iflt, IfIcmpeq:
		if in.Unresolved {
			return fmt.Sprintf("%s (offset %d, unresolved)", in.Op, in.rawOffset)
		}
		return fmt.Sprintf("%s -> %d", in.Op, in.Target)
	case Invokevirtual:
		if in.Unresolved {
			return fmt.Sprintf("invokevirtual (const %d, unresolved)", in.rawConstIdx)
		}
		return fmt.Sprintf("invokevirtual -> %d", in.Target)
	case MethodHeader:
		return fmt.Sprintf("methodheader n_args=%d n_vars=%d", in.NArgs, in.NVars)
	default:
		return in.Op.String()
	}
}

// MethodHeader is a synthetic marker: METHODHEADER has no opcode byte of
// its own in the text stream (it is inferred from constant classification),
// so it is represented as an Instruction with Op set to this sentinel.
const MethodHeader Bytecode = 0xF0

func newMethodHeader(nArgs, nVars uint16) Instruction {
	return Instruction{Op: MethodHeader, NArgs: nArgs, NVars: nVars}
}
