// Package main is the entry point for the taskweave CLI.
package main

import (
	"fmt"
	"os"

	"github.com/evanmoss/taskweave/pkg/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
