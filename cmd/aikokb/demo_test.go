// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/aikokb/internal/kb"
	"github.com/pdiddy/aikokb/pkg/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// openDemoKB builds a small artifact and opens it read-only.
func openDemoKB(t *testing.T) *kb.KB {
	t.Helper()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "manifest.yaml"),
		"name: Aikoinfinity\nversion: \"1.0\"\ndescription: Symbiotic AI manifesto.\n")
	writeFile(t, filepath.Join(src, "topics", "ethics.yaml"), `title: Ethical AI
position: 1
documents:
  - id: conscience
    title: Conscience Layer
    content: Our ethics keep fairness and privacy inseparable from intelligence.
  - id: probes
    title: Safety Probes
    content: Evaluation sets test alignment with safety principles.
  - id: accountability
    title: Accountability Built-In
    content: Every decision is traceable, and privacy is sovereignty.
  - id: inclusion
    title: Fairness and Inclusion
    content: Actively mitigating bias, with ethics guiding every release.
`)
	writeFile(t, filepath.Join(src, "topics", "open-knowledge.yaml"), `title: Open Knowledge
position: 2
documents:
  - id: access
    title: Democratizing Access
    content: Open frameworks empower innovators everywhere.
`)

	cfg := types.KnowledgeBaseConfig{ArtifactPath: filepath.Join(t.TempDir(), "Aikoinfinity.ptl")}
	w, err := kb.Create(cfg)
	require.NoError(t, err)
	summary, err := w.Ingest(context.Background(), kb.IngestOptions{SourceDir: src})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Indexed)
	require.NoError(t, w.Close())

	k, err := kb.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { k.Close() })
	return k
}

func TestRunDemo(t *testing.T) {
	k := openDemoKB(t)

	var buf strings.Builder
	require.NoError(t, runDemo(context.Background(), k, &buf, demoQuery, demoK, demoLabel))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 8, buf.String())
	assert.Equal(t, "ABOUT: Aikoinfinity v1.0: Symbiotic AI manifesto. (2 topics, 5 documents)", lines[0])
	assert.Equal(t, "", lines[1])
	assert.Equal(t, "TOPICS: ethics, open-knowledge", lines[2])
	assert.Equal(t, "", lines[3])
	assert.Equal(t, "SEARCH (ethics):", lines[4])

	resultLine := regexp.MustCompile(`^- .+ \| score=\d+\.\d{3}$`)
	for _, line := range lines[5:] {
		assert.Regexp(t, resultLine, line)
	}
	assert.NotContains(t, buf.String(), "Democratizing Access")
}

func TestRunDemoEmptyQuery(t *testing.T) {
	k := openDemoKB(t)

	var buf strings.Builder
	err := runDemo(context.Background(), k, &buf, "   ", 3, "blank")
	assert.ErrorIs(t, err, kb.ErrEmptyQuery)
}

func TestRunDemoClosedHandle(t *testing.T) {
	k := openDemoKB(t)
	require.NoError(t, k.Close())

	var buf strings.Builder
	err := runDemo(context.Background(), k, &buf, demoQuery, demoK, demoLabel)
	assert.ErrorIs(t, err, kb.ErrClosed)
	assert.Empty(t, buf.String())
}
