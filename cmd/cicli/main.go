// Command cicli is the operator CLI for the code-intelligence engine:
// upload a repository for indexing, query it, walk and inspect the
// cross-reference graph, and check store consistency (spec §6).
package main

import (
	"os"

	"github.com/codeintel/engine/cmd/cicli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
