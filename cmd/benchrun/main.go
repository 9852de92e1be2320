package main

import (
	"fmt"
	"os"

	"fiodistbench/cmd/benchrun/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
