package main

import (
	"context"
	"fmt"
	"os"

	"CBDesk/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(cli.DefaultWiring()).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
