// Package pipeline runs the per-document scoring sequence: extract text,
// recognize entities, embed, retrieve neighbors, score. Stages run in order
// with cooperative cancellation checkpoints between them; independent
// documents run in parallel through RunAll.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/voyagekit/itinscore/document"
	"github.com/voyagekit/itinscore/embeddings"
	"github.com/voyagekit/itinscore/entity"
	"github.com/voyagekit/itinscore/extractor"
	"github.com/voyagekit/itinscore/index"
	"github.com/voyagekit/itinscore/scorer"
)

// ErrStageTimeout reports a stage that exceeded its budget before producing
// anything recoverable. Later-stage timeouts degrade to warnings instead.
var ErrStageTimeout = errors.New("pipeline: stage timed out")

// Config tunes the per-run behavior.
type Config struct {
	// TopK is the number of reference neighbors retrieved per document.
	TopK int
	// StageTimeout bounds the extraction and embedding stages; zero means
	// no stage-level bound beyond the caller's context.
	StageTimeout time.Duration
	// Workers bounds document-level parallelism in RunAll.
	Workers int
}

func (c *Config) defaults() {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// Pipeline wires the five stages together. All collaborators are read-only
// during runs, so one Pipeline serves any number of concurrent documents.
type Pipeline struct {
	extractor  *extractor.Service
	recognizer *entity.Recognizer
	embedder   embeddings.Embedder
	index      *index.Index
	scorer     *scorer.Scorer
	cfg        Config
	logger     *slog.Logger
}

// New assembles a pipeline from its stages.
func New(ext *extractor.Service, rec *entity.Recognizer, emb embeddings.Embedder, idx *index.Index, sc *scorer.Scorer, cfg Config, opts ...Option) *Pipeline {
	cfg.defaults()
	p := &Pipeline{
		extractor:  ext,
		recognizer: rec,
		embedder:   emb,
		index:      idx,
		scorer:     sc,
		cfg:        cfg,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run scores one document. Identical bytes under the same model versions
// yield an identical report. Fatal errors (unsupported format, corrupt
// document, empty text, extraction timeout) abort the run with no report;
// every recoverable degradation lands in the report warnings instead.
func (p *Pipeline) Run(ctx context.Context, doc *document.RawDocument) (*scorer.Report, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run", runID, "document", doc.ID)
	started := time.Now()

	stageCtx, cancel := p.stageContext(ctx)
	extracted, err := p.extractor.Extract(stageCtx, doc)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: extraction", ErrStageTimeout)
		}
		return nil, err
	}
	warnings := extracted.Warnings
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entities := p.recognizer.Recognize(extracted.Parsed)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var neighbors []index.Result
	stageCtx, cancel = p.stageContext(ctx)
	vector, err := embeddings.EmbedText(stageCtx, p.embedder, extracted.Parsed.Text)
	cancel()
	switch {
	case err == nil:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		neighbors, err = p.index.Search(vector, p.cfg.TopK)
		if err != nil {
			return nil, fmt.Errorf("similarity search: %w", err)
		}
	case errors.Is(err, embeddings.ErrEmbeddingUnavailable):
		return nil, err
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		warnings = append(warnings, "embedding stage timed out, similarity degraded to neutral")
		logger.Warn("embedding stage timed out", "budget", p.cfg.StageTimeout)
	default:
		return nil, fmt.Errorf("embed document: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := p.scorer.Score(extracted.Parsed, entities, neighbors, warnings)
	logger.Info("document scored",
		"score", report.Score, "grade", report.Grade,
		"method", report.Method, "entities", entities.Len(),
		"neighbors", len(neighbors), "elapsed", time.Since(started))
	return &report, nil
}

// Outcome pairs a batch document with its report or failure.
type Outcome struct {
	DocumentID string
	Report     *scorer.Report
	Err        error
}

// RunAll scores documents in parallel, bounded by Config.Workers. The result
// preserves input order; per-document failures are reported in place rather
// than aborting the batch.
func (p *Pipeline) RunAll(ctx context.Context, docs []*document.RawDocument) []Outcome {
	outcomes := make([]Outcome, len(docs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.Workers)
	for i, doc := range docs {
		group.Go(func() error {
			report, err := p.Run(groupCtx, doc)
			outcomes[i] = Outcome{DocumentID: doc.ID, Report: report, Err: err}
			return nil
		})
	}
	_ = group.Wait()
	return outcomes
}

func (p *Pipeline) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.StageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.cfg.StageTimeout)
}
