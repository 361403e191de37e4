// Package main is the entry point for the Enginebridge CLI application.
// It runs engine actions locally or through a remote gRPC bridge.
package main

import (
	"enginebridge/cli/cmd"
)

// main is the entry point for the Enginebridge CLI application.
func main() {
	cmd.Execute()
}
