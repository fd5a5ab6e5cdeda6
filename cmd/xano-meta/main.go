package main

import (
	"os"

	"github.com/hashicorp-forge/xano-meta/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
