package main

import (
	"os"

	"github.com/hillway/coursegate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
