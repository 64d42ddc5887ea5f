// Command sodimg applies sod image operations from the command line.
package main

import (
	"os"

	"github.com/gogpu/sod/cmd/sodimg/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
