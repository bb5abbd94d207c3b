package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"signcast/internal/dictionary"
	"signcast/internal/logging"
	"signcast/internal/media"
	"signcast/internal/store"
)

func newDictionaryCommand(ctx *commandContext) *cobra.Command {
	dictCmd := &cobra.Command{
		Use:   "dictionary",
		Short: "Manage the sign clip dictionary",
	}
	dictCmd.AddCommand(newDictionaryIngestCommand(ctx))
	dictCmd.AddCommand(newDictionaryStatsCommand(ctx))
	return dictCmd
}

func newDictionaryIngestCommand(ctx *commandContext) *cobra.Command {
	var libraryDir string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Scan the clip library and publish new sign clips",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			dir := libraryDir
			if dir == "" {
				dir = cfg.Paths.ClipLibraryDir
			}

			db, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			dictStore := dictionary.NewStore(db)
			toolkit := media.NewToolkit(cfg)
			result, err := dictStore.IngestLibrary(cmd.Context(), dir, toolkit, logging.NewNop())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Published %d clips\n", result.Published)
			for _, duplicate := range result.Duplicates {
				fmt.Fprintf(out, "Skipped duplicate: %s\n", duplicate)
			}
			for _, failure := range result.Failures {
				fmt.Fprintf(out, "Failed: %s\n", failure)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&libraryDir, "library", "l", "", "Clip library directory (defaults to the configured one)")
	return cmd
}

func newDictionaryStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dictionary statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			db, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			stats, err := dictionary.NewStore(db).Statistics(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, map[string]any{
					"total_clips":              stats.TotalClips,
					"clips_per_model":          stats.ClipsPerModel,
					"average_duration_seconds": stats.AverageDurationSeconds,
				})
			}

			rows := make([][]string, 0, len(stats.ClipsPerModel))
			for _, model := range dictionary.AvatarModels() {
				rows = append(rows, []string{string(model), fmt.Sprintf("%d", stats.ClipsPerModel[model])})
			}
			printTable(cmd.OutOrStdout(), []string{"Model", "Clips"}, rows, []columnAlignment{alignLeft, alignRight})
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d clips, average duration %.2fs\n",
				stats.TotalClips, stats.AverageDurationSeconds)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}
