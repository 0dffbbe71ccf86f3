package main

import (
	"os"

	"github.com/solatis/pactkeeper/cmd/pactkeeper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
