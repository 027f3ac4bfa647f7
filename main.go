// Package main is the entry point for the ehminer CLI.
package main

import (
	"github.com/huangsam/ehminer/cmd"
	"github.com/huangsam/ehminer/internal/contract"
)

func main() {
	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		contract.LogFatal("Error", err)
	}
}
