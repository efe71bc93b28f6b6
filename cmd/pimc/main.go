// Command pimc compiles dense matrix-multiply kernels for the PIM
// accelerator.
package main

import (
	"github.com/tebeka/atexit"
)

func main() {
	gs := newGlobalState()

	if err := newRootCommand(gs).Execute(); err != nil {
		gs.printError(err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
