// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/aikokb/pkg/types"
)

// Format selects an export encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml", "json", or "" (yaml).
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use yaml or json", s)
	}
}

// Snapshot reads the whole knowledge base in source shape: the manifest
// fields plus every topic with its documents.
func (k *KB) Snapshot(ctx context.Context) (types.KnowledgeBaseSource, error) {
	db, err := k.conn()
	if err != nil {
		return types.KnowledgeBaseSource{}, err
	}

	meta, err := metaValues(ctx, db)
	if err != nil {
		return types.KnowledgeBaseSource{}, err
	}
	snap := types.KnowledgeBaseSource{
		ManifestSource: types.ManifestSource{
			Name:        meta["name"],
			Description: meta["description"],
			Version:     meta["version"],
		},
	}

	topics, err := k.ListTopics(ctx)
	if err != nil {
		return types.KnowledgeBaseSource{}, fmt.Errorf("querying for export: %w", err)
	}
	snap.Topics = make([]types.TopicSource, len(topics))
	for i, t := range topics {
		docs, err := topicDocuments(ctx, db, t.ID)
		if err != nil {
			return types.KnowledgeBaseSource{}, fmt.Errorf("querying for export: %w", err)
		}
		if docs == nil {
			docs = []types.Document{}
		}
		snap.Topics[i] = types.TopicSource{
			ID:        t.ID,
			Title:     t.Title,
			Summary:   t.Summary,
			Position:  t.Position,
			Documents: docs,
		}
	}
	return snap, nil
}

// Export writes the knowledge base to w in the given format.
func (k *KB) Export(ctx context.Context, format Format, w io.Writer) error {
	snap, err := k.Snapshot(ctx)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}
