// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders knowledge base answers for the console.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/aikokb/pkg/types"
)

// FormatResult renders one hit as "- <title> | score=<score>" with the
// score fixed to three decimals.
func FormatResult(r types.SearchResult) string {
	return fmt.Sprintf("- %s | score=%.3f", r.Title, r.Score)
}

// TopicIDs returns the IDs of topics in order.
func TopicIDs(topics []types.Topic) []string {
	ids := make([]string, len(topics))
	for i, t := range topics {
		ids[i] = t.ID
	}
	return ids
}

// WriteAbout writes the ABOUT line.
func WriteAbout(w io.Writer, about string) error {
	_, err := fmt.Fprintf(w, "ABOUT: %s\n", about)
	return err
}

// WriteTopics writes the TOPICS line with comma-separated topic IDs.
func WriteTopics(w io.Writer, topics []types.Topic) error {
	list := "(none)"
	if len(topics) > 0 {
		list = strings.Join(TopicIDs(topics), ", ")
	}
	_, err := fmt.Fprintf(w, "TOPICS: %s\n", list)
	return err
}

// WriteSearch writes the SEARCH header followed by one line per hit.
func WriteSearch(w io.Writer, label string, results []types.SearchResult) error {
	if _, err := fmt.Fprintf(w, "SEARCH (%s):\n", label); err != nil {
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintln(w, FormatResult(r)); err != nil {
			return err
		}
	}
	return nil
}

// Demo holds everything printed by the demo command.
type Demo struct {
	About   string
	Topics  []types.Topic
	Label   string
	Results []types.SearchResult
}

// WriteDemo writes the about, topics, and search sections separated by
// blank lines.
func WriteDemo(w io.Writer, d Demo) error {
	if err := WriteAbout(w, d.About); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := WriteTopics(w, d.Topics); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return WriteSearch(w, d.Label, d.Results)
}

// WriteTopicTable writes topics as an aligned table for the topics command.
func WriteTopicTable(w io.Writer, topics []types.Topic) error {
	if len(topics) == 0 {
		_, err := fmt.Fprintln(w, "No topics.")
		return err
	}

	fmt.Fprintf(w, "%-24s  %-32s  %s\n", "ID", "Title", "Documents")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, t := range topics {
		fmt.Fprintf(w, "%-24s  %-32s  %d\n", truncate(t.ID, 24), truncate(t.Title, 32), t.Documents)
	}
	_, err := fmt.Fprintf(w, "\n%d topics\n", len(topics))
	return err
}

// WriteTopicDetail writes one topic and its documents.
func WriteTopicDetail(w io.Writer, t types.Topic, docs []types.Document) error {
	fmt.Fprintf(w, "%s (%s)\n", t.Title, t.ID)
	if t.Summary != "" {
		fmt.Fprintf(w, "%s\n", t.Summary)
	}
	fmt.Fprintln(w)
	for _, d := range docs {
		line := fmt.Sprintf("- %s [%s]", d.Title, d.ID)
		if len(d.Tags) > 0 {
			line += " #" + strings.Join(d.Tags, " #")
		}
		fmt.Fprintln(w, line)
	}
	_, err := fmt.Fprintf(w, "\n%d documents\n", len(docs))
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
