package main

import (
	"os"

	"github.com/harun/weatherbot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
