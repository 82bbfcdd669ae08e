package vm

import (
	"io"

	"github.com/pkg/errors"
)

// Step fetches the instruction at the program counter, executes it, then
// unconditionally advances the program counter by one — spec.md §4.6's
// dispatch loop. Branch and call instructions already compensate for the
// post-increment (see resolve.go and the INVOKEVIRTUAL/IRETURN cases
// below), so this increment is never skipped.
func (rt *Runtime) Step() (err error) {
	if rt.finished {
		return ErrProgramFinished
	}

	defer func() {
		if r := recover(); r != nil {
			trap, ok := r.(error)
			if !ok {
				trap = errors.Errorf("panic during execution: %v", r)
			}
			rt.finished = true
			rt.err = trap
			err = trap
		}
	}()

	if rt.pc < 0 || rt.pc >= len(rt.program.Instructions) {
		rt.finished = true
		return nil
	}

	in := &rt.program.Instructions[rt.pc]
	if execErr := rt.dispatch(in); execErr != nil {
		rt.finished = true
		rt.err = execErr
		return execErr
	}

	rt.pc++
	if !rt.finished && rt.pc >= len(rt.program.Instructions) {
		rt.finished = true
	}
	return nil
}

func (rt *Runtime) dispatch(in *Instruction) error {
	if rt.hook != nil {
		rt.hook.OnExecute(rt.pc, in.Op)
	}

	switch in.Op {
	case Nop:
		return nil

	case Bipush, LdcW:
		return rt.stack.push(in.IntArg)

	case Iload:
		v, err := rt.frames.current().loadVar(in.Local)
		if err != nil {
			return err
		}
		return rt.stack.push(v)

	case Istore:
		v, err := rt.stack.pop()
		if err != nil {
			return err
		}
		rt.frames.current().storeVar(in.Local, v)
		return nil

	case Iinc:
		v, err := rt.frames.current().loadVar(in.Local)
		if err != nil {
			return err
		}
		rt.frames.current().storeVar(in.Local, v+in.Delta)
		return nil

	case Iadd:
		top, second, err := rt.pop2()
		if err != nil {
			return err
		}
		return rt.stack.push(top + second)

	case Isub:
		top, second, err := rt.pop2()
		if err != nil {
			return err
		}
		return rt.stack.push(second - top)

	case Iand:
		top, second, err := rt.pop2()
		if err != nil {
			return err
		}
		return rt.stack.push(top & second)

	case Ior:
		top, second, err := rt.pop2()
		if err != nil {
			return err
		}
		return rt.stack.push(top | second)

	case Dup:
		top, err := rt.stack.peek()
		if err != nil {
			return err
		}
		return rt.stack.push(top)

	case Pop:
		_, err := rt.stack.pop()
		return err

	case Swap:
		return rt.stack.swapTop()

	case Ifeq:
		top, err := rt.stack.pop()
		if err != nil {
			return err
		}
		if top == 0 {
			rt.pc = in.Target
		}
		return nil

	case Iflt:
		top, err := rt.stack.pop()
		if err != nil {
			return err
		}
		if top < 0 {
			rt.pc = in.Target
		}
		return nil

	case IfIcmpeq:
		top, second, err := rt.pop2()
		if err != nil {
			return err
		}
		if top == second {
			rt.pc = in.Target
		}
		return nil

	case Goto:
		rt.pc = in.Target
		return nil

	case Invokevirtual:
		return rt.invoke(in)

	case Ireturn:
		return rt.ireturn()

	case In:
		return rt.execIn()

	case Out:
		return rt.execOut()

	case Err:
		return ErrInstruction

	case Halt:
		rt.finished = true
		return nil

	default:
		if in.Op.IsReserved() {
			return ErrNotImplemented
		}
		return ErrUnknownOpcode
	}
}

// pop2 pops the top two operands, returning (top, second-from-top), the
// order every binary arithmetic opcode needs.
func (rt *Runtime) pop2() (int32, int32, error) {
	top, err := rt.stack.pop()
	if err != nil {
		return 0, 0, err
	}
	second, err := rt.stack.pop()
	if err != nil {
		return 0, 0, err
	}
	return top, second, nil
}

// invoke implements INVOKEVIRTUAL: in.Target points at the callee's
// METHODHEADER instruction, which declares how many of the caller's
// arguments to lift into the new frame's locals.
func (rt *Runtime) invoke(in *Instruction) error {
	if in.Target < 0 || in.Target >= len(rt.program.Instructions) {
		return ErrBadInvokeTarget
	}
	header := &rt.program.Instructions[in.Target]
	if header.Op != MethodHeader {
		return ErrBadInvokeTarget
	}

	// entry_height is captured before the args are popped, matching the
	// reference: it is the operand stack depth INVOKEVIRTUAL found on
	// entry, not the depth after removing its own arguments. IRETURN's
	// pop-until-entry-height is therefore a no-op in the common case,
	// since the args are already gone by the time the callee returns.
	entryHeight := rt.stack.len()

	args, err := rt.stack.borrowTopN(int(header.NArgs))
	if err != nil {
		return err
	}
	argsCopy := append([]int32(nil), args...)

	rt.stack.popUntil(entryHeight - len(argsCopy))
	rt.frames.push(entryHeight, rt.pc, argsCopy, header.NVars)

	if body, ok := rt.leaves[in.Target]; ok {
		return rt.runLeafBody(body)
	}

	rt.pc = in.Target
	return nil
}

// runLeafBody executes a known-straight-line method body (no branches, no
// nested calls) within the current Step call. Its trailing IRETURN pops
// the frame runLeafBody's caller just pushed and restores rt.pc, exactly as
// it would if the body had been reached through the ordinary dispatch loop.
func (rt *Runtime) runLeafBody(body []Instruction) error {
	for i := range body {
		if err := rt.dispatch(&body[i]); err != nil {
			return err
		}
	}
	return nil
}

// ireturn implements IRETURN: discard everything the callee pushed above
// its entry height, then push the single return value and resume at the
// call site's restore_pc (the outer dispatch loop's post-increment lands
// one instruction past the original INVOKEVIRTUAL).
func (rt *Runtime) ireturn() error {
	returnValue, err := rt.stack.pop()
	if err != nil {
		return err
	}
	f, err := rt.frames.pop()
	if err != nil {
		return err
	}
	rt.stack.popUntil(f.entryHeight)
	rt.pc = f.restorePC
	return rt.stack.push(returnValue)
}

func (rt *Runtime) execIn() error {
	b, err := rt.in.ReadByte()
	if err != nil {
		if err == io.EOF {
			return rt.stack.push(0)
		}
		return wrapIO(err)
	}
	return rt.stack.push(int32(b))
}

func (rt *Runtime) execOut() error {
	top, err := rt.stack.pop()
	if err != nil {
		return err
	}
	_ = rt.out.WriteByte(byte(top))
	return nil
}
