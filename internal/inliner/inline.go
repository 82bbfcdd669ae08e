// Package inliner analyzes a decoded program for leaf methods: bodies that
// run straight from METHODHEADER to IRETURN with no branches and no nested
// calls. This mirrors the optional inlining pass described by the source
// this VM's format was distilled from, adapted for correctness: rather than
// splicing caller and callee instructions into one local-variable space (the
// original's approach, which only works because the caller and callee never
// reuse the same indices by coincidence), this pass just tells the engine
// which call sites it may execute without re-entering the dispatch loop
// between each of the callee's instructions. The callee still gets a real
// frame; only the per-instruction dispatch overhead is removed.
package inliner

import "dfvm/vm"

// Leaf describes one inlinable method body: the span of instructions
// between its METHODHEADER (exclusive) and its IRETURN (inclusive).
type Leaf struct {
	HeaderIndex int
	NArgs       uint16
	NVars       uint16
	Body        []vm.Instruction
}

// Analyze scans a decoded, resolved program and returns every method whose
// body contains no branch and no nested INVOKEVIRTUAL, keyed by the
// instruction index of its METHODHEADER. Analyze never mutates instructions.
func Analyze(instructions []vm.Instruction) map[int]Leaf {
	leaves := make(map[int]Leaf)

	for i, in := range instructions {
		if in.Op != vm.MethodHeader {
			continue
		}

		body, ok := straightLineBody(instructions, i+1)
		if !ok {
			continue
		}

		leaves[i] = Leaf{
			HeaderIndex: i,
			NArgs:       in.NArgs,
			NVars:       in.NVars,
			Body:        body,
		}
	}

	return leaves
}

// straightLineBody walks forward from start looking for IRETURN without
// crossing a branch, a call, or another method header. A method containing
// any of those is left to run through the ordinary dispatch loop.
func straightLineBody(instructions []vm.Instruction, start int) ([]vm.Instruction, bool) {
	for i := start; i < len(instructions); i++ {
		op := instructions[i].Op

		if op == vm.Ireturn {
			return instructions[start : i+1], true
		}
		if op.IsBranch() || op == vm.Invokevirtual || op == vm.MethodHeader {
			return nil, false
		}
	}
	return nil, false
}
