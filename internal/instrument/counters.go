// Package instrument provides an optional execution counter, wired into a
// Runtime via vm.WithHook. It is never required for correctness and costs
// a map lookup per instruction only when attached.
package instrument

import (
	"fmt"
	"io"
	"sort"

	"dfvm/vm"
)

// Counters tallies how many times each opcode was dispatched.
type Counters struct {
	counts map[vm.Bytecode]uint64
	total  uint64
}

// NewCounters returns a zeroed counter set ready to pass to vm.WithHook.
func NewCounters() *Counters {
	return &Counters{counts: make(map[vm.Bytecode]uint64)}
}

// OnExecute implements vm.Hook.
func (c *Counters) OnExecute(_ int, op vm.Bytecode) {
	c.counts[op]++
	c.total++
}

// Total returns the number of instructions dispatched.
func (c *Counters) Total() uint64 { return c.total }

// Count returns how many times op was dispatched.
func (c *Counters) Count(op vm.Bytecode) uint64 { return c.counts[op] }

// WriteReport prints a count per opcode, most frequent first.
func (c *Counters) WriteReport(w io.Writer) {
	type row struct {
		op    vm.Bytecode
		count uint64
	}
	rows := make([]row, 0, len(c.counts))
	for op, count := range c.counts {
		rows = append(rows, row{op, count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].count > rows[j].count })

	fmt.Fprintf(w, "%d instructions executed\n", c.total)
	for _, r := range rows {
		fmt.Fprintf(w, "  %-16s %d\n", r.op, r.count)
	}
}
