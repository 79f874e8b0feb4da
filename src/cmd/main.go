package main

import (
	"os"
	"surihub-timeclock-svc/src/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
