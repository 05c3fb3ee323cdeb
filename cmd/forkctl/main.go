package main

import (
	"os"

	"github.com/mmynk/forkthebill/cmd/forkctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
