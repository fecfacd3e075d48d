package main

import (
	"os"

	"github.com/TechXTT/biopull/pkg/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
