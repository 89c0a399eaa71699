package main

import (
	"os"

	"github.com/drcloud/assistant/cmd/drcloud/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
