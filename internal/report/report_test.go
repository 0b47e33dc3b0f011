// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/aikokb/pkg/types"
)

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  string
	}{
		{"rounds to three decimals", 1.23456, "- Conscience Layer | score=1.235"},
		{"pads to three decimals", 2, "- Conscience Layer | score=2.000"},
		{"small score", 0.0004, "- Conscience Layer | score=0.000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatResult(types.SearchResult{Title: "Conscience Layer", Score: tt.score})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteTopics(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteTopics(&buf, []types.Topic{{ID: "ethics"}, {ID: "open-knowledge"}}))
	assert.Equal(t, "TOPICS: ethics, open-knowledge\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteTopics(&buf, nil))
	assert.Equal(t, "TOPICS: (none)\n", buf.String())
}

func TestWriteDemo(t *testing.T) {
	var buf strings.Builder
	err := WriteDemo(&buf, Demo{
		About:  "Aikoinfinity v1.0: Manifesto. (2 topics, 3 documents)",
		Topics: []types.Topic{{ID: "ethics"}, {ID: "sustainability"}},
		Label:  "ethics",
		Results: []types.SearchResult{
			{Title: "Conscience Layer", Score: 3.14159},
			{Title: "Safety Probes", Score: 1.5},
		},
	})
	require.NoError(t, err)

	want := `ABOUT: Aikoinfinity v1.0: Manifesto. (2 topics, 3 documents)

TOPICS: ethics, sustainability

SEARCH (ethics):
- Conscience Layer | score=3.142
- Safety Probes | score=1.500
`
	assert.Equal(t, want, buf.String())
}

func TestWriteSearchNoResults(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteSearch(&buf, "nothing", nil))
	assert.Equal(t, "SEARCH (nothing):\n", buf.String())
}

func TestWriteTopicTable(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteTopicTable(&buf, []types.Topic{
		{ID: "ethics", Title: "Ethical AI", Documents: 2},
		{ID: "sustainability", Title: "A Sustainable Ecosystem as its Environment", Documents: 1},
	}))
	out := buf.String()
	assert.Contains(t, out, "Ethical AI")
	assert.Contains(t, out, "A Sustainable Ecosystem as it...")
	assert.Contains(t, out, "2 topics")

	buf.Reset()
	require.NoError(t, WriteTopicTable(&buf, nil))
	assert.Equal(t, "No topics.\n", buf.String())
}

func TestWriteTopicDetail(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteTopicDetail(&buf,
		types.Topic{ID: "ethics", Title: "Ethical AI", Summary: "Trust first."},
		[]types.Document{{ID: "d1", Title: "Conscience Layer", Tags: []string{"ethics", "privacy"}}},
	))
	out := buf.String()
	assert.Contains(t, out, "Ethical AI (ethics)\nTrust first.\n")
	assert.Contains(t, out, "- Conscience Layer [d1] #ethics #privacy")
	assert.Contains(t, out, "1 documents")
}
