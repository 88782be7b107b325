// Package main provides the loraview CLI.
package main

import (
	"os"

	"github.com/Karonar1/lora-viewer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
