package main

import (
	"os"

	"github.com/msto63/wtf/cmd/wtf/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
