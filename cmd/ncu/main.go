package main

import (
	"os"

	"github.com/tgruber/ncusers/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
