package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List supported avatar models",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			models, err := client.Models(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, map[string][]string{"models": models})
			}
			for _, model := range models {
				fmt.Fprintln(cmd.OutOrStdout(), model)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}
