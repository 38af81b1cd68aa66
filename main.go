package main

import (
	"Chordbook/cmd"
)

func main() {
	cmd.Execute()
}
