// Command dfvm loads and runs binaries for the 0x1DEADFAD teaching VM.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dfvm/internal/inliner"
	"dfvm/internal/instrument"
	"dfvm/vm"
)

var (
	flagInline   bool
	flagCount    bool
	flagLogLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dfvm",
		Short: "Load and run 0x1DEADFAD binaries",
	}

	root.PersistentFlags().BoolVar(&flagInline, "inline", false, "enable leaf-method inlining")
	root.PersistentFlags().BoolVar(&flagCount, "count", false, "print opcode execution counters on exit")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(newRunCmd(), newStepCmd(), newDisasmCmd())
	return root
}

func loadRuntime(path string) (*vm.Runtime, *instrument.Counters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	log := vm.NewLogger(os.Stderr, vm.ParseLevel(flagLogLevel))

	opts := []vm.Option{vm.WithLogger(log)}

	var counters *instrument.Counters
	if flagCount {
		counters = instrument.NewCounters()
		opts = append(opts, vm.WithHook(counters))
	}

	if flagInline {
		// A first pass load is required before inlining can analyze the
		// decoded program, since leaf detection needs resolved instructions.
		probe, err := vm.Load(f, vm.WithLogger(zerolog.Nop()))
		if err != nil {
			return nil, nil, err
		}
		leaves := inliner.Analyze(probe.Instructions())
		bodies := make(map[int][]vm.Instruction, len(leaves))
		for idx, leaf := range leaves {
			bodies[idx] = leaf.Body
		}
		opts = append(opts, vm.WithLeafBodies(bodies))

		if _, err := f.Seek(0, 0); err != nil {
			return nil, nil, err
		}
	}
	rt, err := vm.Load(f, opts...)
	if err != nil {
		return nil, nil, err
	}
	return rt, counters, nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <binary>",
		Short: "Run a binary to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, counters, err := loadRuntime(args[0])
			if err != nil {
				return err
			}
			runErr := rt.Run()
			_ = rt.Flush()
			if counters != nil {
				counters.WriteReport(os.Stdout)
			}
			if runErr != nil && runErr != vm.ErrProgramFinished {
				return runErr
			}
			return nil
		},
	}
}

func newStepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "step <binary>",
		Short: "Interactively single-step a binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := loadRuntime(args[0])
			if err != nil {
				return err
			}
			dbg := vm.NewDebugger(rt, os.Stdout)

			// Single-keystroke stepping needs a real terminal; fall back to
			// line-buffered commands when stdin is piped or redirected.
			if term.IsTerminal(int(os.Stdin.Fd())) {
				if err := dbg.EnterRawMode(); err != nil {
					return err
				}
				defer dbg.Close()
			}
			defer func() { _ = rt.Flush() }()
			return dbg.RunSession(os.Stdin)
		},
	}
}

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <binary>",
		Short: "Print the decoded instruction stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := loadRuntime(args[0])
			if err != nil {
				return err
			}
			for i, in := range rt.Instructions() {
				fmt.Printf("%4d  %s\n", i, in)
			}
			return nil
		},
	}
}
