// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/aikokb/internal/log"
	"github.com/pdiddy/aikokb/pkg/types"
)

const (
	manifestFile = "manifest.yaml"
	topicsDir    = "topics"
	parseWorkers = 4
)

// documentNamespace seeds the UUIDv5 IDs given to documents that have none.
var documentNamespace = uuid.MustParse("6f1c2b9e-4a7d-5e3f-9b8a-0c1d2e3f4a5b")

// Progress receives one Add(1) per topic file processed. It is satisfied
// by *progressbar.ProgressBar.
type Progress interface {
	Add(num int) error
}

// IngestOptions configures an Ingest run.
type IngestOptions struct {
	// SourceDir contains manifest.yaml and topics/*.yaml.
	SourceDir string

	// Out receives one line per topic and a summary. Nil discards.
	Out io.Writer

	// Progress is advanced once per topic file. Nil disables it.
	Progress Progress
}

// IngestSummary holds counts from a build run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Removed int
	Failed  int
}

// Total returns the number of topics processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Removed + s.Failed
}

// Changed reports whether the run modified any topic.
func (s IngestSummary) Changed() bool {
	return s.Indexed+s.Updated+s.Removed > 0
}

// TopicFiles lists the topic source files under sourceDir/topics, sorted
// by name.
func TopicFiles(sourceDir string) ([]string, error) {
	dir := filepath.Join(sourceDir, topicsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading topics directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// topicFile is one topic source file scheduled for indexing.
type topicFile struct {
	id      string
	path    string
	modTime string
	update  bool
	topic   *types.TopicSource
	err     error
}

// Ingest builds the artifact from opts.SourceDir. Topic files whose
// modification time matches the last run are skipped, changed files
// replace their topic, and topics whose file is gone are removed.
// Per-topic failures are counted in the summary rather than returned.
func (k *KB) Ingest(ctx context.Context, opts IngestOptions) (IngestSummary, error) {
	db, err := k.writableConn()
	if err != nil {
		return IngestSummary{}, err
	}
	w := opts.Out
	if w == nil {
		w = io.Discard
	}

	manifest, err := readManifest(opts.SourceDir)
	if err != nil {
		return IngestSummary{}, err
	}
	manifestChanged, err := k.writeManifest(ctx, db, manifest)
	if err != nil {
		return IngestSummary{}, err
	}

	files, err := TopicFiles(opts.SourceDir)
	if err != nil {
		return IngestSummary{}, err
	}

	status, err := indexingStatus(ctx, db)
	if err != nil {
		return IngestSummary{}, err
	}

	var (
		summary IngestSummary
		pending []*topicFile
		present = make(map[string]bool, len(files))
	)

	for _, path := range files {
		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		present[id] = true

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", id, err)
			summary.Failed++
			advance(opts.Progress)
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		stored, known := status[id]
		if known && stored == modTime {
			fmt.Fprintf(w, "skipped %s\n", id)
			summary.Skipped++
			advance(opts.Progress)
			continue
		}
		pending = append(pending, &topicFile{id: id, path: path, modTime: modTime, update: known})
	}

	if err := parseTopicFiles(ctx, pending); err != nil {
		return summary, err
	}
	applying := claimDocuments(pending)

	for _, tf := range pending {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		err := tf.err
		if err == nil {
			err = k.ingestTopic(ctx, db, tf, applying)
		}
		advance(opts.Progress)

		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", tf.id, err)
			log.Error(err, "indexing topic failed", "topic", tf.id, "file", tf.path)
			summary.Failed++
			continue
		}

		if tf.update {
			fmt.Fprintf(w, "updated %s (%d documents)\n", tf.id, len(tf.topic.Documents))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d documents)\n", tf.id, len(tf.topic.Documents))
			summary.Indexed++
		}
	}

	removed, err := k.removeMissingTopics(ctx, db, present)
	if err != nil {
		return summary, err
	}
	for _, id := range removed {
		fmt.Fprintf(w, "removed %s\n", id)
	}
	summary.Removed = len(removed)

	if summary.Changed() || manifestChanged {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES ('built_at', ?)
			 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
			time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			return summary, fmt.Errorf("recording build time: %w", err)
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, removed: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Removed, summary.Failed)
	log.Info("knowledge base built", "path", k.path,
		"indexed", summary.Indexed, "updated", summary.Updated, "skipped", summary.Skipped,
		"removed", summary.Removed, "failed", summary.Failed)

	return summary, nil
}

func advance(p Progress) {
	if p != nil {
		p.Add(1)
	}
}

func readManifest(sourceDir string) (types.ManifestSource, error) {
	path := filepath.Join(sourceDir, manifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ManifestSource{}, fmt.Errorf("reading manifest: %w", err)
	}
	var m types.ManifestSource
	if err := yaml.Unmarshal(data, &m); err != nil {
		return types.ManifestSource{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if strings.TrimSpace(m.Name) == "" {
		return types.ManifestSource{}, fmt.Errorf("%s: name is required", path)
	}
	return m, nil
}

// writeManifest stores the manifest fields in meta and reports whether any
// of them changed.
func (k *KB) writeManifest(ctx context.Context, db *sql.DB, m types.ManifestSource) (bool, error) {
	current, err := metaValues(ctx, db)
	if err != nil {
		return false, err
	}

	fields := map[string]string{
		"name":        strings.TrimSpace(m.Name),
		"description": strings.TrimSpace(m.Description),
		"version":     strings.TrimSpace(m.Version),
	}
	changed := false
	for key, value := range fields {
		if current[key] == value {
			continue
		}
		changed = true
		if _, err := db.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value,
		); err != nil {
			return false, fmt.Errorf("writing meta %s: %w", key, err)
		}
	}
	return changed, nil
}

func indexingStatus(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT topic_id, file_mod_time FROM indexing_status`)
	if err != nil {
		return nil, fmt.Errorf("reading indexing status: %w", err)
	}
	defer rows.Close()

	status := make(map[string]string)
	for rows.Next() {
		var id string
		var modTime sql.NullString
		if err := rows.Scan(&id, &modTime); err != nil {
			return nil, fmt.Errorf("scanning indexing status: %w", err)
		}
		status[id] = modTime.String
	}
	return status, rows.Err()
}

// parseTopicFiles reads and validates pending files concurrently. A file
// that fails records its error on the topicFile; only cancellation aborts.
func parseTopicFiles(ctx context.Context, pending []*topicFile) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parseWorkers)

	for _, tf := range pending {
		tf := tf
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tf.topic, tf.err = parseTopicFile(tf.path, tf.id)
			return nil
		})
	}
	return g.Wait()
}

func parseTopicFile(path, id string) (*types.TopicSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var topic types.TopicSource
	if err := yaml.Unmarshal(data, &topic); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if topic.ID == "" {
		topic.ID = id
	}
	if topic.ID != id {
		return nil, fmt.Errorf("topic id %q does not match file name %q", topic.ID, id)
	}
	if strings.TrimSpace(topic.Title) == "" {
		return nil, errors.New("topic title is required")
	}

	seen := make(map[string]bool, len(topic.Documents))
	for i := range topic.Documents {
		d := &topic.Documents[i]
		d.TopicID = topic.ID
		d.Title = strings.TrimSpace(d.Title)
		if d.Title == "" {
			return nil, fmt.Errorf("document %d: title is required", i+1)
		}
		if strings.TrimSpace(d.Content) == "" {
			return nil, fmt.Errorf("document %q: content is required", d.Title)
		}
		if d.ID == "" {
			d.ID = DocumentID(topic.ID, d.Title)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("duplicate document id %q", d.ID)
		}
		seen[d.ID] = true
		d.Tags = normalizeTags(d.Tags)
	}
	return &topic, nil
}

// claimDocuments rejects a pending topic that reuses a document ID already
// claimed by an earlier pending topic, and returns the IDs of the topics
// that will be applied.
func claimDocuments(pending []*topicFile) map[string]bool {
	owners := make(map[string]string)
	applying := make(map[string]bool, len(pending))
	for _, tf := range pending {
		if tf.err != nil {
			continue
		}
		for _, d := range tf.topic.Documents {
			if other, ok := owners[d.ID]; ok {
				tf.err = fmt.Errorf("document id %q is also in topic %q", d.ID, other)
				break
			}
		}
		if tf.err != nil {
			continue
		}
		for _, d := range tf.topic.Documents {
			owners[d.ID] = tf.id
		}
		applying[tf.id] = true
	}
	return applying
}

// DocumentID derives the stable ID used for a document that has none.
func DocumentID(topicID, title string) string {
	return uuid.NewSHA1(documentNamespace, []byte(topicID+"/"+strings.ToLower(title))).String()
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		t = strings.Join(strings.Fields(t), "-")
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ingestTopic replaces one topic and its documents in a single transaction.
// A document may move here from another topic in applying; a document ID
// owned by any other topic is an error.
func (k *KB) ingestTopic(ctx context.Context, db *sql.DB, tf *topicFile, applying map[string]bool) error {
	topic := tf.topic

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE topic_id = ?`, topic.ID); err != nil {
		return fmt.Errorf("deleting old documents: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO topics (id, title, summary, position) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, summary=excluded.summary, position=excluded.position`,
		topic.ID, strings.TrimSpace(topic.Title), strings.TrimSpace(topic.Summary), topic.Position,
	)
	if err != nil {
		return fmt.Errorf("upserting topic: %w", err)
	}

	owner, err := tx.PrepareContext(ctx, `SELECT topic_id FROM documents WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing lookup: %w", err)
	}
	defer owner.Close()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, topic_id, title, content, tags, source)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			topic_id=excluded.topic_id, title=excluded.title, content=excluded.content,
			tags=excluded.tags, source=excluded.source`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range topic.Documents {
		var current string
		err := owner.QueryRowContext(ctx, d.ID).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("looking up document %s: %w", d.ID, err)
		case !applying[current]:
			return fmt.Errorf("document id %q is already used by topic %q", d.ID, current)
		}

		tagsJSON, _ := json.Marshal(d.Tags)
		if _, err := stmt.ExecContext(ctx,
			d.ID, d.TopicID, d.Title, d.Content, string(tagsJSON), d.Source,
		); err != nil {
			return fmt.Errorf("inserting document %s: %w", d.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (topic_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(topic_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		topic.ID, tf.modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// removeMissingTopics deletes topics that no longer have a source file and
// returns their IDs.
func (k *KB) removeMissingTopics(ctx context.Context, db *sql.DB, present map[string]bool) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM topics ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing topics: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning topic: %w", err)
		}
		if !present[id] {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range stale {
		if err := removeTopic(ctx, db, id); err != nil {
			return nil, err
		}
	}
	return stale, nil
}

func removeTopic(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM documents WHERE topic_id = ?`,
		`DELETE FROM topics WHERE id = ?`,
		`DELETE FROM indexing_status WHERE topic_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("removing topic %s: %w", id, err)
		}
	}
	return tx.Commit()
}
