package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tbxark/viewagent/types"
	"github.com/tbxark/viewagent/views"
)

var viewsSchema string

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "List the view catalog or print the JSON schema of a view",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := views.DefaultRegistry()
		if viewsSchema != "" {
			schema, err := reg.JSONSchemaString(types.ViewTypeID(viewsSchema), true)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, schema)
			return nil
		}
		printCatalog(os.Stdout, reg)
		return nil
	},
}

func printCatalog(out io.Writer, reg *views.Registry) {
	table := tablewriter.NewTable(out)
	table.Header("View", "Required props", "Optional props")
	for _, s := range reg.Schemas() {
		_ = table.Append(
			string(s.TypeID),
			strings.Join(s.RequiredProps(), ", "),
			strings.Join(s.OptionalProps(), ", "),
		)
	}
	_ = table.Render()
}
