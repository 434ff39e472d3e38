package main

import (
	"os"

	"github.com/yasl-lang/yaql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
