// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/aikokb/internal/kb"
	"github.com/pdiddy/aikokb/internal/report"
	"github.com/pdiddy/aikokb/pkg/types"
)

// --- about ---

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Describe the knowledge base",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKB()
		if err != nil {
			return err
		}
		defer k.Close()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			info, err := k.Info(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), info)
		}

		about, err := k.About(cmd.Context())
		if err != nil {
			return err
		}
		return report.WriteAbout(cmd.OutOrStdout(), about)
	},
}

// --- topics ---

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the topics of the knowledge base",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKB()
		if err != nil {
			return err
		}
		defer k.Close()

		topics, err := k.ListTopics(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), topics)
		}
		return report.WriteTopicTable(cmd.OutOrStdout(), topics)
	},
}

var topicsShowCmd = &cobra.Command{
	Use:   "show <topic-id>",
	Short: "Show one topic and its documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKB()
		if err != nil {
			return err
		}
		defer k.Close()

		topic, docs, err := k.Topic(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), struct {
				types.Topic
				Items []types.Document `json:"items"`
			}{topic, docs})
		}
		return report.WriteTopicDetail(cmd.OutOrStdout(), topic, docs)
	},
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Rank documents against a free-text query",
	Long: `Search ranks documents by BM25 relevance to the query. Query words are
OR-combined, so documents matching more of them rank higher. Use --topic and
--tag to narrow the candidates.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("k")
		topic, _ := cmd.Flags().GetString("topic")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		asJSON, _ := cmd.Flags().GetBool("json")

		k, err := openKB()
		if err != nil {
			return err
		}
		defer k.Close()

		query := strings.Join(args, " ")
		results, err := k.Query(cmd.Context(), kb.QueryOptions{
			Query: query,
			Topic: topic,
			Tags:  tags,
			K:     limit,
		})
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), results)
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No results found.")
			return nil
		}
		return report.WriteSearch(cmd.OutOrStdout(), query, results)
	},
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	aboutCmd.Flags().Bool("json", false, "output the manifest as JSON")
	topicsCmd.PersistentFlags().Bool("json", false, "output as JSON")

	searchCmd.Flags().Int("k", 0, "maximum results (0 = use --max-results)")
	searchCmd.Flags().String("topic", "", "only search documents in this topic")
	searchCmd.Flags().StringSlice("tag", nil, "only search documents carrying this tag (repeatable)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	topicsCmd.AddCommand(topicsShowCmd)
	rootCmd.AddCommand(aboutCmd, topicsCmd, searchCmd)
}
