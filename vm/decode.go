package vm

// decoder performs the single linear pass over the text pool described in
// spec.md §4.3: it walks a byte cursor, emits one Instruction per step
// (or a METHODHEADER when the cursor lands on a classified method-ref
// offset), and grows a byte->instruction mapping used later by resolve().
type decoder struct {
	text      []byte
	constants []int32
	kinds     []ConstantKind
	cursor    int

	instructions []Instruction
	mapping      []int // one entry per text byte, value = instruction index
}

func newDecoder(text []byte, constants []int32, kinds []ConstantKind) *decoder {
	return &decoder{
		text:      text,
		constants: constants,
		kinds:     kinds,
		mapping:   make([]int, 0, len(text)),
	}
}

func (d *decoder) isMethodRefOffset(offset int) bool {
	for i, c := range d.constants {
		k := d.kinds[i]
		if (k == KindMethodRef || k == KindEither) && int(c) == offset {
			return true
		}
	}
	return false
}

func (d *decoder) remaining() int { return len(d.text) - d.cursor }

func (d *decoder) readByte() byte {
	b := d.text[d.cursor]
	d.cursor++
	return b
}

func (d *decoder) readU16() uint16 {
	hi, lo := d.readByte(), d.readByte()
	return uint16(hi)<<8 | uint16(lo)
}

func (d *decoder) readI16() int16 {
	return int16(d.readU16())
}

// decode runs the full pass, returning the decoded program and its
// byte->instruction mapping.
func decode(text []byte, constants []int32, kinds []ConstantKind) ([]Instruction, []int, error) {
	d := newDecoder(text, constants, kinds)

	for d.cursor < len(d.text) {
		startOffset := d.cursor
		instr, err := d.decodeOne(startOffset)
		if err != nil {
			return nil, nil, err
		}

		idx := len(d.instructions)
		d.instructions = append(d.instructions, instr)

		consumed := d.cursor - startOffset
		for i := 0; i < consumed; i++ {
			d.mapping = append(d.mapping, idx)
		}
	}

	return d.instructions, d.mapping, nil
}

func (d *decoder) decodeOne(offset int) (Instruction, error) {
	if d.isMethodRefOffset(offset) {
		if d.remaining() < 4 {
			return Instruction{}, ErrTruncatedBlock
		}
		nArgs := d.readU16()
		nVars := d.readU16()
		return newMethodHeader(nArgs, nVars), nil
	}

	op := Bytecode(d.readByte())

	switch op {
	case Nop, Dup, Pop, Swap, Iadd, Isub, Iand, Ior, Ireturn, In, Out, Err, Halt:
		return Instruction{Op: op}, nil

	case Bipush:
		return Instruction{Op: op, IntArg: int32(int8(d.readByte()))}, nil

	case LdcW:
		idx := d.readU16()
		if int(idx) >= len(d.kinds) {
			return Instruction{}, ErrBadConstantKind
		}
		kind := d.kinds[idx]
		if kind != KindStackValue && kind != KindEither {
			return Instruction{}, ErrBadConstantKind
		}
		return Instruction{Op: op, IntArg: d.constants[idx]}, nil

	case Iload, Istore:
		return Instruction{Op: op, Local: uint16(d.readByte())}, nil

	case Iinc:
		local := uint16(d.readByte())
		delta := int32(d.readByte()) // unsigned-widened, no sign extension (spec.md §9)
		return Instruction{Op: op, Local: local, Delta: delta}, nil

	case Goto, Ifeq, Iflt, IfIcmpeq:
		return Instruction{Op: op, Unresolved: true, rawOffset: d.readI16(), byteOffset: offset}, nil

	case Invokevirtual:
		return Instruction{Op: op, Unresolved: true, rawConstIdx: d.readU16(), byteOffset: offset}, nil

	case Wide:
		return d.decodeWide()

	default:
		if op.IsReserved() {
			return Instruction{Op: op}, nil
		}
		return Instruction{}, ErrUnknownOpcode
	}
}

// decodeWide extends ILOAD/ISTORE/IINC's operand width from u8 to u16, per
// spec.md §4.3 and §6.2. For IINC both the local index and the delta widen
// to u16 (mirroring how WIDE IINC works in the JVM this format borrows its
// opcode table from); the delta is still unsigned-widened, never sign
// extended, matching plain IINC.
func (d *decoder) decodeWide() (Instruction, error) {
	if d.remaining() < 1 {
		return Instruction{}, ErrInvalidWideOpcode
	}
	sub := Bytecode(d.readByte())

	switch sub {
	case Iload, Istore:
		return Instruction{Op: sub, Local: d.readU16()}, nil
	case Iinc:
		local := d.readU16()
		delta := int32(d.readU16())
		return Instruction{Op: Iinc, Local: local, Delta: delta}, nil
	default:
		return Instruction{}, ErrInvalidWideOpcode
	}
}
