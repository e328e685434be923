package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vsinha/printcenter/pkg/interfaces/cli/commands"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	root := commands.NewRootCommand(version)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
