package main

import (
	"os"

	"github.com/rpggio/gitlink/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
