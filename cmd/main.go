package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "graphsync",
		Short: "Cache synchronization tooling for GraphQL clients",
	}
	root.AddCommand(validateCmd(), keyCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
