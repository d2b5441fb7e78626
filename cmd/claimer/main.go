package main

import (
	"os"

	"github.com/okian/hiveclaim/cmd/claimer/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
