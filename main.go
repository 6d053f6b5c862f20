package main

import (
	"os"

	"github.com/PolarWolf314/credvault/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
