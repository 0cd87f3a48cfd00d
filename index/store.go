package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/viant/sqlite-vec/engine"
	"github.com/viant/sqlite-vec/vec"
	"github.com/viant/sqlite-vec/vector"

	"github.com/voyagekit/itinscore/embeddings"
)

// Store persists reference corpora in SQLite. It backs the durable side of
// the index: versions are loaded from it at startup and written by the
// out-of-band corpus build, never mutated during scoring.
type Store struct {
	db  *sql.DB
	dsn string
}

// OpenStore opens (or creates) a corpus database.
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("corpus dsn required")
	}
	db, err := engine.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open corpus db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	if err := vec.Register(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register vec module: %w", err)
	}
	s := &Store{db: db, dsn: dsn}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _vec_ref_corpus (
			dataset_id TEXT NOT NULL,
			id TEXT NOT NULL,
			content TEXT,
			meta TEXT,
			embedding BLOB,
			embedding_model TEXT,
			scn INTEGER NOT NULL DEFAULT 0,
			archived INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY(dataset_id, id)
		);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS ref_corpus USING vec(ref_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			// The pipeline still works without the vec module through the
			// fallback scan.
			if strings.Contains(err.Error(), "no such module: vec") && strings.Contains(stmt, "VIRTUAL TABLE") {
				continue
			}
			return fmt.Errorf("ensure corpus schema: %w", err)
		}
	}
	return nil
}

// SaveVersion replaces the stored corpus for a dataset with the given
// version in one transaction, so a concurrent LoadVersion sees either the
// old or the new corpus, never a mix.
func (s *Store) SaveVersion(ctx context.Context, dataset string, version *Version) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM _vec_ref_corpus WHERE dataset_id = ?`, dataset); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO _vec_ref_corpus(dataset_id, id, content, meta, embedding, embedding_model, scn, archived)
VALUES(?,?,?,?,?,?,0,0)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, ref := range version.refs {
		blob, err := vector.EncodeEmbedding(ref.Vector.Values)
		if err != nil {
			return fmt.Errorf("encode embedding for %s: %w", ref.ID, err)
		}
		meta, err := json.Marshal(map[string]string{"label": ref.Label})
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, dataset, ref.ID, ref.Content, string(meta), blob, version.model); err != nil {
			return fmt.Errorf("insert reference %s: %w", ref.ID, err)
		}
	}
	return tx.Commit()
}

// LoadVersion reads the stored corpus for a dataset and model into an
// immutable Version.
func (s *Store) LoadVersion(ctx context.Context, dataset, model string) (*Version, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, meta, embedding
FROM _vec_ref_corpus WHERE dataset_id = ? AND embedding_model = ? AND archived = 0`, dataset, model)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	defer rows.Close()

	var refs []Reference
	for rows.Next() {
		var (
			ref  Reference
			meta string
			blob []byte
		)
		if err := rows.Scan(&ref.ID, &ref.Content, &meta, &blob); err != nil {
			return nil, err
		}
		values, err := vector.DecodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("decode embedding for %s: %w", ref.ID, err)
		}
		ref.Label = extractMetaLabel(meta)
		ref.Vector = embeddings.Vector{Model: model, Values: values}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return NewVersion(model, refs)
}

// Search runs a vector MATCH against the corpus, falling back to a cosine
// scan when the vec module is unavailable. Results come back as ascending
// cosine distance, like Version.Search.
func (s *Store) Search(ctx context.Context, dataset string, query embeddings.Vector, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}
	blob, err := vector.EncodeEmbedding(query.Values)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT d.id, v.match_score, d.meta
FROM ref_corpus v
JOIN _vec_ref_corpus d ON d.dataset_id = v.dataset_id AND d.id = v.ref_id
WHERE v.dataset_id = ?
  AND v.ref_id MATCH ?
  AND d.archived = 0
  AND d.embedding_model = ?
ORDER BY v.match_score DESC
LIMIT ?`, dataset, blob, query.Model, k)
	if err != nil && (strings.Contains(err.Error(), "no such module: vec") ||
		strings.Contains(err.Error(), "no such table: ref_corpus") ||
		strings.Contains(err.Error(), "unable to use function MATCH")) {
		return s.fallbackSearch(ctx, dataset, query, k)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			item  Result
			score float64
			meta  string
		)
		if err := rows.Scan(&item.ReferenceID, &score, &meta); err != nil {
			return nil, err
		}
		item.Label = extractMetaLabel(meta)
		item.Distance = 1 - score
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) fallbackSearch(ctx context.Context, dataset string, query embeddings.Vector, k int) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, meta, embedding FROM _vec_ref_corpus
WHERE dataset_id = ? AND embedding_model = ? AND archived = 0`, dataset, query.Model)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			item Result
			meta string
			blob []byte
		)
		if err := rows.Scan(&item.ReferenceID, &meta, &blob); err != nil {
			return nil, err
		}
		values, err := vector.DecodeEmbedding(blob)
		if err != nil {
			continue
		}
		item.Label = extractMetaLabel(meta)
		item.Distance = 1 - cosineSimilarity(query.Values, values)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func extractMetaLabel(meta string) string {
	var payload map[string]string
	if err := json.Unmarshal([]byte(meta), &payload); err != nil {
		return ""
	}
	return payload["label"]
}
