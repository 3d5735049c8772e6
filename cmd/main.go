package main

import (
	"fmt"
	"os"

	"github.com/owetally/tally/cmd/run"
)

func main() {
	if err := run.Run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error running tally server: %v", err)
		os.Exit(1)
	}
}
