package main

import (
	"os"

	"github.com/example/secure-scanner/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
