package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check daemon component health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			health, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, health)
			}

			rows := make([][]string, 0, len(health.Components))
			for _, component := range health.Components {
				state := "ok"
				if !component.Healthy {
					state = "unhealthy"
				}
				rows = append(rows, []string{component.Name, state, component.Detail})
			}
			printTable(cmd.OutOrStdout(), []string{"Component", "State", "Detail"}, rows, nil)
			if !health.Healthy {
				return fmt.Errorf("daemon unhealthy")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}
