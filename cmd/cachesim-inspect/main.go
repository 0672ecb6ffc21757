// Command cachesim-inspect is a read-only terminal viewer over a snapshot
// written by `cachesim -o`. It is not part of the simulator's CLI contract
// (spec §6); it is a convenience view over already-produced output.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lookbusy1344/rv32-cachesim/image"
	"github.com/lookbusy1344/rv32-cachesim/inspect"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cachesim-inspect <snapshot-file>")
		os.Exit(1)
	}

	snapshot, err := image.ReadSnapshot(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := inspect.New(snapshot).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
