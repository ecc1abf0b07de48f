package main

import (
	"context"
	"os"

	"assetwatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
