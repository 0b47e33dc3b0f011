// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/aikokb/internal/kb"
	"github.com/pdiddy/aikokb/internal/report"
)

const (
	demoQuery = "ethics privacy safety alignment"
	demoLabel = "ethics"
	demoK     = 3
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Print the about line, the topics, and a sample search",
	Long: `Demo loads the artifact and prints three sections:

  ABOUT: what the knowledge base is
  TOPICS: its topic IDs
  SEARCH (ethics): the top 3 hits for "ethics privacy safety alignment"

Override the search with --query, --k, and --label.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		limit, _ := cmd.Flags().GetInt("k")
		label, _ := cmd.Flags().GetString("label")
		if !cmd.Flags().Changed("label") && cmd.Flags().Changed("query") {
			label = query
		}

		k, err := openKB()
		if err != nil {
			return err
		}
		defer k.Close()

		return runDemo(cmd.Context(), k, cmd.OutOrStdout(), query, limit, label)
	},
}

// runDemo queries k and writes the demo report to w.
func runDemo(ctx context.Context, k *kb.KB, w io.Writer, query string, limit int, label string) error {
	about, err := k.About(ctx)
	if err != nil {
		return err
	}
	topics, err := k.ListTopics(ctx)
	if err != nil {
		return err
	}
	results, err := k.Search(ctx, query, limit)
	if err != nil {
		return err
	}

	return report.WriteDemo(w, report.Demo{
		About:   about,
		Topics:  topics,
		Label:   label,
		Results: results,
	})
}

func init() {
	demoCmd.Flags().String("query", demoQuery, "search query")
	demoCmd.Flags().Int("k", demoK, "number of search results")
	demoCmd.Flags().String("label", demoLabel, "label printed in the SEARCH header")

	rootCmd.AddCommand(demoCmd)
}
