package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dosco/graphsync/core"
)

var (
	keyName  string
	keyQuery string
	keyVars  string
)

func keyCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "key",
		Short: "Print the cache key derived for an operation",
		Long: `Derive the canonical cache key for a named operation, as the engine
would when tracking it. Useful for inspecting store contents:

  graphsync key --name ListItems --vars '{"filter":"x"}'`,
		Run: cmdKey,
	}
	c.Flags().StringVar(&keyName, "name", "", "Operation name (required)")
	c.Flags().StringVar(&keyQuery, "query", "", "Operation document text")
	c.Flags().StringVar(&keyVars, "vars", "", "Operation variables as JSON")
	_ = c.MarkFlagRequired("name")
	return c
}

func cmdKey(cmd *cobra.Command, args []string) {
	op := &core.Operation{
		Kind:  core.OpQuery,
		Name:  keyName,
		Query: []byte(keyQuery),
	}
	if keyVars != "" {
		op.Vars = json.RawMessage(keyVars)
	}

	key, err := core.DeriveKey(op)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("key:         %s\n", key)
	fmt.Printf("fingerprint: %016x\n", key.Fingerprint())
}
