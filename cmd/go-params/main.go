package main

import (
	"fmt"
	"os"

	"github.com/gaborage/go-params/internal/commands"
)

var version = "dev" // set with -ldflags at build time

func main() {
	if err := commands.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
