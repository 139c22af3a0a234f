package main

import (
	"os"

	"github.com/harborhq/gantry/cmd/gantry/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
