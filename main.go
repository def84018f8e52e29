package main

import (
	"os"

	"github.com/sharphuman/hr-passive-cv/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
