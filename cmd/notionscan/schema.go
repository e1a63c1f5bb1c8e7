package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nao1215/notionscan/internal/report"
	"github.com/spf13/cobra"
)

// NewSchemaCmd creates the schema command.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [name|all]",
		Short: "Print the JSON Schema of an output document",
		Long: fmt.Sprintf(`Schema prints the JSON Schema of an output file.

Available names: %s. With "all" (the default) a JSON object keyed by name
holds every schema.`, strings.Join(report.SchemaNames(), ", ")),
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: append(report.SchemaNames(), "all"),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "all"
			if len(args) == 1 {
				name = args[0]
			}

			var v any
			if name == "all" {
				all := make(map[string]any)
				for _, n := range report.SchemaNames() {
					s, err := report.Schema(n)
					if err != nil {
						return err
					}
					all[n] = s
				}
				v = all
			} else {
				s, err := report.Schema(name)
				if err != nil {
					return err
				}
				v = s
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
}
