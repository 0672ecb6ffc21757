// Command cachesim is the RV32IM cache-simulating emulator's primary CLI.
// It accepts exactly the two argument shapes documented in spec.md §6:
//
//	cachesim -i <input>
//	cachesim -i <input> -o <output> <hex_addr> <dec_len>
//
// Any other argument count is a fatal error, reported in the form the
// original tool used so downstream scripts that scrape stderr keep working.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/lookbusy1344/rv32-cachesim/config"
	"github.com/lookbusy1344/rv32-cachesim/sim"
)

// errArgCount is printed verbatim to stderr on a malformed argument list;
// the Russian text is preserved from the original tool for compatibility
// with scripts that match on it.
const errArgCount = "Неправильное количество аргументов\n"

func main() {
	opts, err := parseArgs(os.Args)
	if err != nil {
		fmt.Fprint(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if _, err := sim.Run(opts, cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseArgs implements the §6 CLI contract exactly: argc must be 3 (just
// -i) or 7 (-i and -o with a hex base address and a decimal length).
func parseArgs(args []string) (sim.Options, error) {
	if len(args) != 3 && len(args) != 7 {
		return sim.Options{}, fmt.Errorf("%s", errArgCount)
	}
	if args[1] != "-i" || (len(args) == 7 && args[3] != "-o") {
		return sim.Options{}, fmt.Errorf("%s", errArgCount)
	}

	var opts sim.Options
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "-i":
			i++
			opts.InputPath = args[i]
		case "-o":
			i++
			opts.OutputPath = args[i]
			i++
			base, err := strconv.ParseUint(args[i], 16, 32)
			if err != nil {
				return sim.Options{}, fmt.Errorf("cachesim: invalid hex address %q: %w", args[i], err)
			}
			opts.WindowBase = uint32(base)
			i++
			length, err := strconv.ParseUint(args[i], 10, 32)
			if err != nil {
				return sim.Options{}, fmt.Errorf("cachesim: invalid length %q: %w", args[i], err)
			}
			opts.WindowLen = uint32(length)
		}
	}
	return opts, nil
}
