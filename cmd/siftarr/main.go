// Package main is the entry point for the siftarr application.
package main

import (
	"os"

	"github.com/siftarr/siftarr/cmd/siftarr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
