package main

import (
	"os"

	"github.com/dshills/gitprompt/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
