package main

import (
	"os"

	"symjit/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
