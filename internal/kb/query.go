// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/aikokb/pkg/types"
)

// QueryOptions holds parameters for a ranked search.
type QueryOptions struct {
	// Query is free text. Its terms are OR-combined.
	Query string

	// Topic restricts hits to one topic ID.
	Topic string

	// Tags restricts hits to documents carrying every listed tag. Tags are
	// normalized the same way as at ingest.
	Tags []string

	// K limits the result count. Zero or less uses the handle's default.
	K int
}

// Info returns the manifest of the knowledge base with topic and document
// counts.
func (k *KB) Info(ctx context.Context) (types.Manifest, error) {
	db, err := k.conn()
	if err != nil {
		return types.Manifest{}, err
	}

	meta, err := metaValues(ctx, db)
	if err != nil {
		return types.Manifest{}, err
	}

	m := types.Manifest{
		Name:        meta["name"],
		Description: meta["description"],
		Version:     meta["version"],
		BuiltAt:     parseBuiltAt(meta["built_at"]),
	}
	m.FormatVersion, _ = strconv.Atoi(meta["format_version"])

	err = db.QueryRowContext(ctx,
		`SELECT (SELECT count(*) FROM topics), (SELECT count(*) FROM documents)`,
	).Scan(&m.Topics, &m.Documents)
	if err != nil {
		return types.Manifest{}, fmt.Errorf("counting contents: %w", err)
	}
	return m, nil
}

// About returns a one-line description of the knowledge base.
func (k *KB) About(ctx context.Context) (string, error) {
	m, err := k.Info(ctx)
	if err != nil {
		return "", err
	}
	return AboutText(m), nil
}

// AboutText renders m as "<name> v<version>: <description> (<n> topics,
// <m> documents)". Missing parts are left out.
func AboutText(m types.Manifest) string {
	var b strings.Builder
	name := m.Name
	if name == "" {
		name = "Knowledge base"
	}
	b.WriteString(name)
	if m.Version != "" {
		b.WriteString(" v")
		b.WriteString(m.Version)
	}
	if m.Description != "" {
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(m.Description))
	}
	fmt.Fprintf(&b, " (%d %s, %d %s)",
		m.Topics, plural(m.Topics, "topic", "topics"),
		m.Documents, plural(m.Documents, "document", "documents"))
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// ListTopics returns all topics ordered by position, then ID. An empty
// knowledge base yields an empty slice.
func (k *KB) ListTopics(ctx context.Context) ([]types.Topic, error) {
	db, err := k.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT t.id, t.title, t.summary, t.position, count(d.rowid)
		FROM topics t
		LEFT JOIN documents d ON d.topic_id = t.id
		GROUP BY t.id
		ORDER BY t.position, t.id`)
	if err != nil {
		return nil, fmt.Errorf("listing topics: %w", err)
	}
	defer rows.Close()

	topics := []types.Topic{}
	for rows.Next() {
		var (
			t       types.Topic
			summary sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &summary, &t.Position, &t.Documents); err != nil {
			return nil, fmt.Errorf("scanning topic: %w", err)
		}
		t.Summary = summary.String
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// Topic returns one topic and its documents ordered by ID.
func (k *KB) Topic(ctx context.Context, id string) (types.Topic, []types.Document, error) {
	db, err := k.conn()
	if err != nil {
		return types.Topic{}, nil, err
	}

	var (
		t       types.Topic
		summary sql.NullString
	)
	err = db.QueryRowContext(ctx,
		`SELECT id, title, summary, position FROM topics WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &summary, &t.Position)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.Topic{}, nil, fmt.Errorf("%w: %s", ErrTopicNotFound, id)
		}
		return types.Topic{}, nil, fmt.Errorf("looking up topic: %w", err)
	}
	t.Summary = summary.String

	docs, err := topicDocuments(ctx, db, id)
	if err != nil {
		return types.Topic{}, nil, err
	}
	t.Documents = len(docs)
	return t, docs, nil
}

func topicDocuments(ctx context.Context, db *sql.DB, topicID string) ([]types.Document, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, topic_id, title, content, tags, source
		FROM documents WHERE topic_id = ? ORDER BY id`, topicID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var (
			d        types.Document
			tagsJSON sql.NullString
			source   sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.TopicID, &d.Title, &d.Content, &tagsJSON, &source); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if tagsJSON.Valid {
			if err := json.Unmarshal([]byte(tagsJSON.String), &d.Tags); err != nil {
				return nil, fmt.Errorf("decoding tags of %s: %w", d.ID, err)
			}
		}
		d.Source = source.String
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Search returns up to k documents ranked by relevance to query. With
// k <= 0 the handle's default result count applies.
func (k *KB) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	return k.Query(ctx, QueryOptions{Query: query, K: limit})
}

// Query runs a ranked full-text search with optional topic and tag
// filters. Results are ordered by descending score, then document ID.
func (k *KB) Query(ctx context.Context, opts QueryOptions) ([]types.SearchResult, error) {
	db, err := k.conn()
	if err != nil {
		return nil, err
	}

	terms := queryTerms(opts.Query)
	if len(terms) == 0 {
		return nil, ErrEmptyQuery
	}

	limit := opts.K
	if limit <= 0 {
		limit = k.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT d.id, d.topic_id, d.title,
			matchinfo(documents_fts, 'pcnalx'),
			snippet(documents_fts, '', '', '...', 1, 12)
		FROM documents_fts
		JOIN documents d ON d.rowid = documents_fts.docid
		WHERE documents_fts MATCH ?`)
	args = append(args, matchExpression(terms))

	if opts.Topic != "" {
		qb.WriteString(` AND d.topic_id = ?`)
		args = append(args, opts.Topic)
	}
	for _, tag := range normalizeTags(opts.Tags) {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(d.tags) WHERE value = ?)`)
		args = append(args, tag)
	}

	rows, err := db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching knowledge base: %w", err)
	}
	defer rows.Close()

	results := []types.SearchResult{}
	for rows.Next() {
		var (
			r       types.SearchResult
			info    []byte
			snippet sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.TopicID, &r.Title, &info, &snippet); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		score, err := bm25(info, columnWeights)
		if err != nil {
			return nil, fmt.Errorf("scoring %s: %w", r.ID, err)
		}
		if score <= 0 {
			continue
		}
		r.Score = score
		r.Snippet = strings.TrimSpace(snippet.String)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// queryTerms splits free text into lowercase, de-duplicated terms made of
// letters and digits. The split follows the unicode61 tokenizer, so dashes
// and other Unicode punctuation separate terms.
func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// matchExpression quotes each term so FTS operators in user input are
// taken literally, and ORs them together.
func matchExpression(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}
