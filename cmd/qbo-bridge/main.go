// Package main is the entry point for the qbo-bridge CLI.
package main

import (
	"os"

	"github.com/pigeonworks-llc/qbo-bridge/cmd/qbo-bridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
