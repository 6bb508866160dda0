// hostval checks that runtime host values and their structured form agree
// on ordering and survive conversion between the two.
//
// Usage:
//
//	hostval check [--property p] [--cases n] [--seed s]  Check a property over generated cases
//	hostval scenario <path>...                            Run YAML scenario files
//	hostval compare <left> <right>                        Compare two canonical JSON values
//	hostval defects --db <file>                           List recorded defects
//	hostval runs --db <file>                              List recorded runs
package main

import (
	"fmt"
	"os"

	"github.com/roach88/hostval/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
