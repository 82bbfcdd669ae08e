package vm

// resolve performs the second pass described in spec.md §4.4: it rewrites
// every unresolved GOTO/IFEQ/IFLT/IF_ICMPEQ/INVOKEVIRTUAL placeholder into
// a concrete instruction-index target, using the byte->instruction mapping
// the decoder built.
//
// Branch targets are resolved to target-1: the dispatch loop (exec.go)
// unconditionally increments the program counter after every instruction,
// including a branch that just set it, so storing the target pre-decremented
// means the post-increment lands exactly on the intended instruction.
func resolve(instructions []Instruction, mapping []int, constants []int32, kinds []ConstantKind) error {
	for i := range instructions {
		in := &instructions[i]
		if !in.Unresolved {
			continue
		}

		switch in.Op {
		case Goto, Ifeq, Iflt, IfIcmpeq:
			k := in.byteOffset + int(in.rawOffset)
			if k < 0 || k >= len(mapping) {
				return ErrBadBranchTarget
			}
			in.Target = mapping[k] - 1
			in.Unresolved = false

		case Invokevirtual:
			if int(in.rawConstIdx) >= len(kinds) {
				return ErrBadConstantKind
			}
			kind := kinds[in.rawConstIdx]
			if kind != KindMethodRef && kind != KindEither {
				return ErrBadConstantKind
			}
			textOffset := int(constants[in.rawConstIdx])
			if textOffset < 0 || textOffset >= len(mapping) {
				return ErrBadInvokeTarget
			}
			in.Target = mapping[textOffset]
			in.Unresolved = false
		}
	}

	return nil
}
