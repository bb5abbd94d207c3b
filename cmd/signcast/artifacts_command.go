package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newArtifactsCommand(ctx *commandContext) *cobra.Command {
	artifactsCmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Manage video artifacts",
	}
	artifactsCmd.AddCommand(newArtifactsPromoteCommand(ctx))
	artifactsCmd.AddCommand(newArtifactsDeleteCommand(ctx))
	artifactsCmd.AddCommand(newArtifactsSweepCommand(ctx))
	return artifactsCmd
}

func newArtifactsPromoteCommand(ctx *commandContext) *cobra.Command {
	var ownerID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "promote <artifact-id>",
		Short: "Make a temporary artifact permanent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Promote(cmd.Context(), args[0], ownerID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Artifact %s promoted to %s\n", resp.ArtifactID, resp.StoragePath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&ownerID, "owner", "o", "", "Owner the permanent video belongs to (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newArtifactsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <artifact-id>",
		Short: "Delete a temporary artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.DeleteArtifact(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Artifact %s deleted\n", args[0])
			return nil
		},
	}
}

func newArtifactsSweepCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired temporary artifacts now",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			result, err := client.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired, %d orphans, %d failures\n",
				result.Removed, result.Orphans, result.Failures)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}
