package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vsinha/quiltplan/pkg/interfaces/cli/commands"
)

func main() {
	if err := commands.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
