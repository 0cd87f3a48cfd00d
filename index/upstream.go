package index

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/viant/sqlx/io/config"
	"golang.org/x/sync/errgroup"

	"github.com/voyagekit/itinscore/embeddings"
)

// UpstreamConfig describes an external SQL source of reference itineraries.
// Query must project exactly three columns: id, label, content.
type UpstreamConfig struct {
	Query     string
	BatchSize int
	Workers   int
}

const (
	defaultUpstreamBatch   = 64
	defaultUpstreamWorkers = 4
)

// ImportUpstream reads reference rows from an upstream database, embeds their
// content and returns a corpus version ready to swap in. The driver dialect
// is detected through sqlx metadata so the same query shape works against
// mysql, postgres and bigquery sources.
func ImportUpstream(ctx context.Context, db *sql.DB, cfg UpstreamConfig, embedder embeddings.Embedder, logger *slog.Logger) (*Version, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.Query) == "" {
		return nil, fmt.Errorf("import upstream: query is required")
	}
	query := cfg.Query
	if dialect, err := config.Dialect(ctx, db); err != nil {
		logger.Warn("upstream dialect detection failed, using query as-is", "error", err)
	} else {
		query = dialect.EnsurePlaceholders(query)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("import upstream: query: %w", err)
	}
	defer rows.Close()

	var refs []Reference
	for rows.Next() {
		var ref Reference
		if err := rows.Scan(&ref.ID, &ref.Label, &ref.Content); err != nil {
			return nil, fmt.Errorf("import upstream: scan: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("import upstream: rows: %w", err)
	}
	if err := embedReferences(ctx, refs, cfg, embedder); err != nil {
		return nil, err
	}
	logger.Info("upstream corpus imported", "references", len(refs), "model", embedder.Model())
	return NewVersion(embedder.Model(), refs)
}

// embedReferences fills in reference vectors, batching documents and bounding
// concurrent embedder calls.
func embedReferences(ctx context.Context, refs []Reference, cfg UpstreamConfig, embedder embeddings.Embedder) error {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultUpstreamBatch
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultUpstreamWorkers
	}
	model := embedder.Model()
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for start := 0; start < len(refs); start += batchSize {
		end := start + batchSize
		if end > len(refs) {
			end = len(refs)
		}
		batch := refs[start:end]
		group.Go(func() error {
			docs := make([]string, len(batch))
			for i, ref := range batch {
				docs[i] = ref.Content
			}
			vectors, err := embedder.EmbedDocuments(groupCtx, docs)
			if err != nil {
				return fmt.Errorf("import upstream: embed batch: %w", err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("import upstream: embedder returned %d vectors for %d documents", len(vectors), len(batch))
			}
			for i := range batch {
				batch[i].Vector = embeddings.Vector{Model: model, Values: vectors[i]}
			}
			return nil
		})
	}
	return group.Wait()
}
