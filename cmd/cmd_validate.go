package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dosco/graphsync/core"
)

var validateJSON bool

// ValidationResult holds the outcome of a watch list validation
type ValidationResult struct {
	Success   bool   `json:"success"`
	File      string `json:"file"`
	Mutations int    `json:"mutations"`
	Queries   int    `json:"queries"`
	Error     string `json:"error,omitempty"`
}

func validateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "validate <watch-file>",
		Short: "Validate a mutation watch list file",
		Long: `Validate a YAML watch list declaring which queries each watched
mutation can affect:

  mutations:
    AddItem: [ListItems]
    RemoveItem: [ListItems, ItemCount]

Exit codes:
  0 - Watch list is valid
  1 - Watch list is malformed`,
		Args: cobra.ExactArgs(1),
		Run:  cmdValidate,
	}
	c.Flags().BoolVar(&validateJSON, "json", false, "Output results in JSON format")
	return c
}

func cmdValidate(cmd *cobra.Command, args []string) {
	res := ValidationResult{File: args[0]}

	wl, err := core.LoadWatchList(afero.NewOsFs(), args[0])
	if err != nil {
		res.Error = err.Error()
	} else {
		res.Success = true
		res.Mutations = len(wl.Mutations)
		for _, queries := range wl.Mutations {
			res.Queries += len(queries)
		}
	}

	if validateJSON {
		out, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(out))
	} else if res.Success {
		fmt.Printf("%s: ok (%d mutations, %d query registrations)\n",
			res.File, res.Mutations, res.Queries)
	} else {
		fmt.Fprintf(os.Stderr, "%s: %s\n", res.File, res.Error)
	}

	if !res.Success {
		os.Exit(1)
	}
}
