// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/aikokb/internal/kb"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the artifact from YAML sources",
	Long: `Build reads manifest.yaml and topics/*.yaml from the source directory and
writes them into the artifact, creating it if needed. Topic files that have
not changed since the last build are skipped; topics whose file was removed
are dropped from the artifact.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		noProgress, _ := cmd.Flags().GetBool("no-progress")
		sourceDir := cfg.KnowledgeBase.SourceDir

		files, err := kb.TopicFiles(sourceDir)
		if err != nil {
			return err
		}

		k, err := kb.Create(cfg.KnowledgeBase)
		if err != nil {
			return err
		}
		defer k.Close()

		opts := kb.IngestOptions{
			SourceDir: sourceDir,
			Out:       cmd.OutOrStdout(),
		}
		var bar *progressbar.ProgressBar
		if !noProgress {
			bar = progressbar.NewOptions(len(files),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("indexing topics"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			opts.Progress = bar
		}

		summary, err := k.Ingest(cmd.Context(), opts)
		if bar != nil {
			bar.Finish()
		}
		if err != nil {
			return err
		}
		if summary.Total() == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "no topic files in %s\n", sourceDir)
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d topic(s) failed indexing", summary.Failed)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", k.Path())
		return nil
	},
}

func init() {
	buildCmd.Flags().String("source", "knowledge/source", "source directory (contains manifest.yaml, topics/)")
	buildCmd.Flags().Bool("no-progress", false, "disable the progress bar")
	viper.BindPFlag("source_dir", buildCmd.Flags().Lookup("source"))

	rootCmd.AddCommand(buildCmd)
}
