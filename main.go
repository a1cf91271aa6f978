package main

import (
	"go.dedis.ch/chord/cmd"
)

func main() {
	// Enters the command line interface
	cmd.UserInterface()
}
