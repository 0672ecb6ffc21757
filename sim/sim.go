// Package sim is the simulation driver: it loads an image, runs the
// execution engine twice (once per cache replacement policy) against
// independent fresh state, reports hit rates, and optionally persists a
// post-flush memory window and the final register file.
package sim

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/lookbusy1344/rv32-cachesim/cache"
	"github.com/lookbusy1344/rv32-cachesim/config"
	"github.com/lookbusy1344/rv32-cachesim/cpu"
	"github.com/lookbusy1344/rv32-cachesim/image"
	"github.com/lookbusy1344/rv32-cachesim/rv32"
)

// Options are the decoded CLI inputs (spec §6); the argc/flag parsing that
// produces them lives in the root package main (main.go) and is out of scope
// for this package.
type Options struct {
	InputPath  string
	OutputPath string // empty means "no -o given"
	WindowBase uint32
	WindowLen  uint32
}

// PolicyResult is one policy run's outcome.
type PolicyResult struct {
	Kind  cache.Kind
	Rates cache.Rates
}

// Run executes both policy runs and writes the standard report to out. If
// opts.OutputPath is set, the LRU run's post-flush state is persisted
// through image.WriteSnapshot.
func Run(opts Options, cfg *config.Config, out io.Writer) ([]PolicyResult, error) {
	regs, fragments, err := image.Load(opts.InputPath)
	if err != nil {
		return nil, err
	}

	tracer, closeTracer, err := newTracer(cfg)
	if err != nil {
		return nil, err
	}
	defer closeTracer()

	fmt.Fprintln(out, colorize(out, cfg, "replacement\thit rate\thit rate (inst)\thit rate (data)"))

	persist := opts.OutputPath != ""

	lru, err := runPolicy(cache.LRU, regs, fragments, cfg, tracer, persist)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(out, colorize(out, cfg, lru.rates.Report(lru.kind.String())))

	if persist {
		if err := image.WriteSnapshot(opts.OutputPath, lru.finalPC, lru.finalRegs, opts.WindowBase, opts.WindowLen, lru.ram); err != nil {
			return nil, err
		}
	}

	bplru, err := runPolicy(cache.BitPLRU, regs, fragments, cfg, tracer, false)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(out, colorize(out, cfg, bplru.rates.Report(bplru.kind.String())))

	return []PolicyResult{
		{Kind: lru.kind, Rates: lru.rates},
		{Kind: bplru.kind, Rates: bplru.rates},
	}, nil
}

// colorize wraps s in green when cfg.Display.ColorOutput is set and out is
// a terminal (golang.org/x/term.IsTerminal); it passes s through unchanged
// for a redirected file or pipe, matching how a well-behaved CLI avoids
// leaking escape codes into captured output.
func colorize(out io.Writer, cfg *config.Config, s string) string {
	if !cfg.Display.ColorOutput {
		return s
	}
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return s
	}
	return "\x1b[32m" + s + "\x1b[0m"
}

type runOutcome struct {
	kind      cache.Kind
	rates     cache.Rates
	finalPC   uint32
	finalRegs [rv32.NumRegisters]uint32
	ram       *rv32.RAM
}

// runPolicy builds a fresh RAM and cache for one policy, runs the engine to
// halt, and — when flush is requested — flushes the cache so the returned
// RAM is coherent for persistence.
func runPolicy(kind cache.Kind, regs image.Registers, fragments []rv32.Fragment, cfg *config.Config, tracer cpu.Config, flush bool) (runOutcome, error) {
	ram, err := rv32.NewRAM(fragments)
	if err != nil {
		return runOutcome{}, err
	}

	ctrl := cache.NewController(kind, ram)
	engineCfg := tracer
	engineCfg.TrapUnsupportedOpcode = cfg.Execution.TrapUnsupportedOpcode
	engineCfg.MaxInstructions = cfg.Execution.MaxInstructions

	engine := cpu.NewEngine(ctrl, [rv32.NumRegisters]uint32(regs), engineCfg)
	if err := engine.Run(); err != nil {
		return runOutcome{}, fmt.Errorf("sim: %s run: %w", kind, err)
	}

	rates := ctrl.HitRates()
	if flush {
		ctrl.Flush()
	}

	return runOutcome{
		kind:      ctrl.Kind(),
		rates:     rates,
		finalPC:   engine.PC,
		finalRegs: engine.Regs.Snapshot(),
		ram:       ram,
	}, nil
}

// newTracer builds the cpu.Config carrying an optional execution trace
// writer, per SPEC_FULL.md §4.10/§4.14. It returns a no-op config when
// tracing is disabled.
func newTracer(cfg *config.Config) (cpu.Config, func(), error) {
	if !cfg.Diagnostics.Verbose || cfg.Diagnostics.TraceFile == "" {
		return cpu.Config{}, func() {}, nil
	}

	f, err := os.Create(cfg.Diagnostics.TraceFile) // #nosec G304 -- operator-controlled config path
	if err != nil {
		return cpu.Config{}, nil, fmt.Errorf("sim: opening trace file: %w", err)
	}

	trace := func(pc, instr uint32, hit bool) {
		status := "MISS"
		if hit {
			status = "HIT"
		}
		fmt.Fprintf(f, "pc=0x%05X instr=0x%08X %s\n", pc, instr, status)
	}

	return cpu.Config{Trace: trace}, func() { f.Close() }, nil
}
