package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"signcast/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var subjectRef string
	var avatarModel string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "submit <text>",
		Short: "Submit text for ISL video generation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			resp, err := client.Submit(cmd.Context(), api.SubmitRequest{
				SubjectRef:  subjectRef,
				Text:        strings.Join(args, " "),
				AvatarModel: avatarModel,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s queued (%s)\n", resp.JobID, formatStatusLabel(resp.Status))
			return nil
		},
	}

	cmd.Flags().StringVarP(&subjectRef, "subject", "s", "", "Subject reference the generation belongs to (required)")
	cmd.Flags().StringVarP(&avatarModel, "model", "m", "", "Avatar model (male or female)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
