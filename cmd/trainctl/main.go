// Package main is the entry point for the trainctl CLI binary.
package main

import (
	"fmt"
	"os"

	"github.com/PersonalHealthTrain/train-container-library/cmd/trainctl/commands"
)

func main() {
	err := commands.Execute()
	if err == nil {
		return
	}
	if code, ok := commands.ExitCode(err); ok {
		os.Exit(code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
