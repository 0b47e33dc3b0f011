// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Manifest describes a knowledge base artifact as a whole. The About text
// is rendered from it.
type Manifest struct {
	// Name is the display name of the knowledge base (e.g. "Aikoinfinity").
	Name string `json:"name" yaml:"name"`

	// Description is the free-text summary shown by about.
	Description string `json:"description" yaml:"description"`

	// Version is the content version chosen by the knowledge base author.
	Version string `json:"version" yaml:"version"`

	// BuiltAt records the last time the artifact was written.
	BuiltAt time.Time `json:"built_at" yaml:"built_at"`

	// FormatVersion is the artifact schema version.
	FormatVersion int `json:"format_version" yaml:"format_version"`

	// Topics is the number of topics in the artifact.
	Topics int `json:"topics" yaml:"topics"`

	// Documents is the number of documents in the artifact.
	Documents int `json:"documents" yaml:"documents"`
}

// Topic is a named group of documents. Topics are the unit of
// incremental rebuilds.
type Topic struct {
	// ID is a lowercase, hyphenated identifier (e.g. "ethics").
	ID string `json:"id" yaml:"id"`

	Title   string `json:"title" yaml:"title"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Position orders topics in listings. Ties fall back to ID.
	Position int `json:"position" yaml:"position"`

	// Documents is the number of documents filed under the topic.
	Documents int `json:"documents" yaml:"documents"`
}

// Document is a single searchable entry of the knowledge base.
type Document struct {
	// ID is stable across rebuilds. When the source omits it, one is derived
	// from the topic ID and title.
	ID string `json:"id" yaml:"id"`

	TopicID string `json:"topic_id" yaml:"topic_id"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`

	// Tags are lowercase, hyphenated labels used as search filters.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Source is an optional provenance reference (URL or file path).
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// SearchResult is one ranked hit returned by a knowledge base search.
type SearchResult struct {
	ID      string `json:"id" yaml:"id"`
	TopicID string `json:"topic_id" yaml:"topic_id"`
	Title   string `json:"title" yaml:"title"`

	// Score is the BM25 relevance of the hit. Higher is more relevant and
	// every returned hit scores above zero.
	Score float64 `json:"score" yaml:"score"`

	// Snippet is a short excerpt of the content around the matched terms.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// ManifestSource is the shape of manifest.yaml in a source directory.
type ManifestSource struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Version     string `json:"version" yaml:"version"`
}

// TopicSource is the shape of one topics/<id>.yaml file in a source
// directory. It is also the per-topic shape of an export.
type TopicSource struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Summary   string     `json:"summary,omitempty" yaml:"summary,omitempty"`
	Position  int        `json:"position" yaml:"position"`
	Documents []Document `json:"documents" yaml:"documents"`
}

// KnowledgeBaseSource is a whole knowledge base in source shape, as written
// by export.
type KnowledgeBaseSource struct {
	ManifestSource `yaml:",inline"`
	Topics         []TopicSource `json:"topics" yaml:"topics"`
}
