package main

import (
	"fmt"
	"os"

	"github.com/cryguy/tscompiler/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tscompile:", err)
		os.Exit(1)
	}
}
