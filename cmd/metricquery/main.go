package main

import (
	"os"

	"metricquery/cmd/metricquery/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
