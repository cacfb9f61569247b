// Package main provides the lunarcal command-line tool.
package main

import (
	"os"

	"github.com/zapponejosh/lunar-almanac/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
