package main

import (
	"os"

	"github.com/rustyeddy/binscan/cmd/binscan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
