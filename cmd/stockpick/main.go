package main

import (
	"os"

	"github.com/wonny/stockpick/cmd/stockpick/commands"
)

// main is the entry point for the stockpick CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/stockpick [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(commands.ExitCode(err))
	}
}
