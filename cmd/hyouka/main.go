// Command hyouka is the CLI entry point for feedback agreement analytics.
package main

import (
	"os"

	"github.com/scoreflow/hyouka/cmd/hyouka/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
