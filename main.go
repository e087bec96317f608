// ABOUTME: Entry point for the jaksim study dashboard
// ABOUTME: Hands control to the cobra command tree
package main

import (
	"os"

	"github.com/jaksim/jaksim/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
