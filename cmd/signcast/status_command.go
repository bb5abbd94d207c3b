package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a generation job's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			for {
				view, err := client.Job(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if jsonOutput {
					if err := writeJSON(cmd, view); err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Job:      %s\n", view.JobID)
					fmt.Fprintf(out, "Subject:  %s\n", view.SubjectRef)
					fmt.Fprintf(out, "Model:    %s\n", view.AvatarModel)
					fmt.Fprintf(out, "Status:   %s (%d%%)\n", formatStatusLabel(view.Status), view.ProgressPercent)
					fmt.Fprintf(out, "Message:  %s\n", view.Message)
					if view.ArtifactID != "" {
						fmt.Fprintf(out, "Artifact: %s\n", view.ArtifactID)
					}
					if view.ErrorDetail != "" {
						fmt.Fprintf(out, "Error:    %s\n", view.ErrorDetail)
					}
					if len(view.SignsSkipped) > 0 {
						fmt.Fprintf(out, "Skipped:  %v\n", view.SignsSkipped)
					}
				}

				done := view.Status == "completed" || view.Status == "error"
				if !watch || done {
					return nil
				}
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(2 * time.Second):
				}
			}
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll until the job reaches a terminal state")
	return cmd
}
