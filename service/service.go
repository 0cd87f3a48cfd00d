// Package service is the facade over the scoring pipeline: it builds the
// process-wide singletons (model, gazetteer, embedder, index) once from
// configuration and exposes Score, BuildCorpus and Search.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/viant/afs"

	"github.com/voyagekit/itinscore/document"
	"github.com/voyagekit/itinscore/embeddings"
	"github.com/voyagekit/itinscore/embeddings/ollama"
	"github.com/voyagekit/itinscore/entity"
	"github.com/voyagekit/itinscore/extractor"
	"github.com/voyagekit/itinscore/index"
	"github.com/voyagekit/itinscore/pipeline"
	"github.com/voyagekit/itinscore/scorer"
)

// Option configures the Service.
type Option func(*Service)

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEmbedder substitutes the configured embedding backend, for tests.
func WithEmbedder(e embeddings.Embedder) Option {
	return func(s *Service) { s.embedder = e }
}

// Service wires the pipeline to durable state. Safe for concurrent use: the
// index swaps atomically and everything else is read-only after New.
type Service struct {
	cfg      *Config
	fs       afs.Service
	embedder embeddings.Embedder
	store    *index.Store
	index    *index.Index
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

// New builds the service from configuration: loads the regression model and
// gazetteer, selects the embedding backend and, when a corpus DSN is set,
// loads the persisted corpus version into the in-memory index.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg, fs: afs.New(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	model := scorer.DefaultModel()
	if cfg.Model != "" {
		loaded, err := scorer.LoadModel(ctx, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("load scoring model: %w", err)
		}
		model = loaded
	}

	var gazetteer *entity.Gazetteer
	if cfg.Gazetteer != "" {
		loaded, err := entity.OpenSQLite(ctx, cfg.Gazetteer)
		if err != nil {
			return nil, fmt.Errorf("open gazetteer: %w", err)
		}
		gazetteer = loaded
	}

	if s.embedder == nil {
		switch cfg.Embedder.Provider {
		case "", "simple":
			s.embedder = embeddings.NewSimpleEmbedder(cfg.Embedder.Dim)
		case "ollama":
			var ollamaOpts []ollama.Option
			if cfg.Embedder.BaseURL != "" {
				ollamaOpts = append(ollamaOpts, ollama.WithBaseURL(cfg.Embedder.BaseURL))
			}
			s.embedder = ollama.New(cfg.Embedder.Model, ollamaOpts...)
		default:
			return nil, fmt.Errorf("unknown embedder provider %q", cfg.Embedder.Provider)
		}
	}

	switch {
	case cfg.Corpus.DSN != "":
		store, err := index.OpenStore(ctx, cfg.Corpus.DSN)
		if err != nil {
			return nil, fmt.Errorf("open corpus store: %w", err)
		}
		s.store = store
		version, err := store.LoadVersion(ctx, cfg.Dataset, s.embedder.Model())
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		s.index = index.New(version)
		s.logger.Info("corpus loaded", "dataset", cfg.Dataset, "references", version.Len())
	case cfg.Corpus.Snapshot != "":
		// Store-less deployment: bootstrap the index from an exported
		// snapshot. A missing snapshot just means no corpus was built yet.
		version, err := index.LoadSnapshot(ctx, cfg.Corpus.Snapshot)
		switch {
		case err != nil:
			s.logger.Warn("corpus snapshot unavailable, starting with empty corpus",
				"snapshot", cfg.Corpus.Snapshot, "error", err)
			s.index = index.New(nil)
		case version.Model() != s.embedder.Model():
			s.logger.Warn("corpus snapshot ignored, embedding model differs",
				"snapshot", version.Model(), "embedder", s.embedder.Model())
			s.index = index.New(nil)
		default:
			s.index = index.New(version)
			s.logger.Info("corpus loaded from snapshot",
				"snapshot", cfg.Corpus.Snapshot, "references", version.Len())
		}
	default:
		s.index = index.New(nil)
	}

	ext := extractor.New(extractor.Config{
		MinCharsPerPage: cfg.Extractor.MinCharsPerPage,
		MaxOCRPages:     cfg.Extractor.MaxOCRPages,
		OCR: extractor.OCRConfig{
			Pdftoppm:  cfg.Extractor.Pdftoppm,
			Tesseract: cfg.Extractor.Tesseract,
			Lang:      cfg.Extractor.Lang,
			DPI:       cfg.Extractor.DPI,
		},
	}, extractor.WithLogger(s.logger))

	s.pipeline = pipeline.New(ext,
		entity.NewRecognizer(gazetteer, entity.WithRecognizerLogger(s.logger)),
		s.embedder, s.index, scorer.New(model),
		pipeline.Config{
			TopK:         cfg.Pipeline.TopK,
			StageTimeout: time.Duration(cfg.Pipeline.StageTimeoutSeconds) * time.Second,
			Workers:      cfg.Pipeline.Workers,
		},
		pipeline.WithLogger(s.logger))
	return s, nil
}

// Close releases the corpus store, if any.
func (s *Service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Score runs the pipeline over raw document bytes. The format is sniffed
// from the name extension and content magic.
func (s *Service) Score(ctx context.Context, name string, data []byte) (*scorer.Report, error) {
	format, err := document.SniffFormat(name, data)
	if err != nil {
		return nil, err
	}
	doc, err := document.NewRaw(name, data, format)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Run(ctx, doc)
}

// ScoreURL downloads a document from any afs-addressable location (local
// path, s3://, gs://) and scores it.
func (s *Service) ScoreURL(ctx context.Context, url string) (*scorer.Report, error) {
	data, err := s.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download document: %w", err)
	}
	return s.Score(ctx, path.Base(url), data)
}

// ScoreAll scores documents in parallel, preserving input order.
func (s *Service) ScoreAll(ctx context.Context, docs []*document.RawDocument) []pipeline.Outcome {
	return s.pipeline.RunAll(ctx, docs)
}

// CorpusDocument is one labeled reference itinerary for corpus building.
type CorpusDocument struct {
	ID    string
	Label string
	Text  string
}

// BuildCorpus embeds the given references into a new corpus version,
// persists it and swaps it into the live index. Concurrent scoring runs keep
// observing the previous version until the swap.
func (s *Service) BuildCorpus(ctx context.Context, docs []CorpusDocument) error {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}
	refs := make([]index.Reference, len(docs))
	for i, doc := range docs {
		refs[i] = index.Reference{
			ID:      doc.ID,
			Label:   doc.Label,
			Content: doc.Text,
			Vector:  embeddings.Vector{Model: s.embedder.Model(), Values: vectors[i]},
		}
	}
	version, err := index.NewVersion(s.embedder.Model(), refs)
	if err != nil {
		return err
	}
	return s.install(ctx, version)
}

// SyncUpstream imports reference rows from the configured upstream database
// and installs them as the new corpus version.
func (s *Service) SyncUpstream(ctx context.Context) error {
	if s.cfg.Upstream.DSN == "" {
		return fmt.Errorf("no upstream configured")
	}
	db, err := sql.Open(s.cfg.Upstream.Driver, s.cfg.Upstream.DSN)
	if err != nil {
		return fmt.Errorf("open upstream: %w", err)
	}
	defer db.Close()
	version, err := index.ImportUpstream(ctx, db, index.UpstreamConfig{
		Query:     s.cfg.Upstream.Query,
		BatchSize: s.cfg.Upstream.Batch,
		Workers:   s.cfg.Upstream.Workers,
	}, s.embedder, s.logger)
	if err != nil {
		return err
	}
	return s.install(ctx, version)
}

func (s *Service) install(ctx context.Context, version *index.Version) error {
	if s.store != nil {
		if err := s.store.SaveVersion(ctx, s.cfg.Dataset, version); err != nil {
			return fmt.Errorf("persist corpus: %w", err)
		}
	}
	if s.cfg.Corpus.Snapshot != "" {
		if err := index.SaveSnapshot(ctx, s.cfg.Corpus.Snapshot, version); err != nil {
			return fmt.Errorf("export corpus snapshot: %w", err)
		}
	}
	s.index.Swap(version)
	s.logger.Info("corpus installed", "dataset", s.cfg.Dataset, "references", version.Len())
	return nil
}

// Search embeds a free-text query and returns its nearest reference
// itineraries. With a corpus store open the query runs through its vector
// MATCH path; otherwise it scans the in-memory index. Scoring runs always
// use the in-memory index, so a corpus rebuild never disturbs them mid-run.
func (s *Service) Search(ctx context.Context, query string, k int) ([]index.Result, error) {
	vector, err := embeddings.EmbedText(ctx, s.embedder, query)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		return s.store.Search(ctx, s.cfg.Dataset, vector, k)
	}
	return s.index.Search(vector, k)
}
