package main

import (
	"os"

	"github.com/wonny/riskreport/cmd/riskreport/commands"
)

// main is the entry point for the riskreport CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/riskreport [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
