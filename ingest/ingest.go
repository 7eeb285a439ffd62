// Package ingest turns a directory tree or single file into indexed
// documents and graph updates, idempotently (§4.3). A bounded worker pool
// runs the per-file stage chain (discover, extract, normalize, summarize,
// embed, graph-update, upsert) and emits Progress events as files complete;
// a debounced filesystem watcher (watch.go) feeds the same per-file path
// for create/modify/delete/move events.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/memory"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/embedding"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
	"github.com/HalfBloodPrince07/Vantage-sub000/store"
)

// Stage names one point in the per-file pipeline, used on Progress events.
type Stage string

const (
	StageDiscover    Stage = "discover"
	StageExtract     Stage = "extract"
	StageNormalize   Stage = "normalize"
	StageSummarize   Stage = "summarize"
	StageEmbed       Stage = "embed"
	StageGraphUpdate Stage = "graph_update"
	StageUpsert      Stage = "upsert"
)

// Status is a file's terminal outcome.
type Status string

const (
	StatusOK      Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Progress is one `{status, current_file, "k/N", stage, error?}` event.
type Progress struct {
	CurrentFile string
	Index       int
	Total       int
	Stage       Stage
	Status      Status
	DocID       string
	Err         error
}

// FileResult is IngestFile's return value.
type FileResult struct {
	Path   string
	DocID  string
	Status Status
	Err    error
}

// Report aggregates a run's outcome counts.
type Report struct {
	Success int
	Failed  int
	Skipped int
}

// Options configures a Pipeline. The zero value is filled in from
// config.Cfg.Ingest by DefaultOptions.
type Options struct {
	AllowedExtensions  []string
	MaxFileBytes       int64
	MaxContentChars    int
	ExtractConcurrency int
	SummarizeConcurrency int
	OCRThresholdChars  int
	MaxWalkDepth       int
}

// DefaultOptions returns Options populated from config.Cfg.Ingest, with the
// one fallback (OCRThresholdChars, MaxWalkDepth) §4.3 states as a literal
// default rather than a configured option.
func DefaultOptions() Options {
	cfg := config.Cfg.Ingest
	return Options{
		AllowedExtensions:    cfg.AllowedExtensions,
		MaxFileBytes:         cfg.MaxFileBytes,
		MaxContentChars:      cfg.MaxContentChars,
		ExtractConcurrency:   cfg.Workers.Extract,
		SummarizeConcurrency: cfg.Workers.LLM,
		OCRThresholdChars:    100,
		MaxWalkDepth:         64,
	}
}

// Pipeline runs the ingestion stage chain against a document store, a live
// entity graph, a vector index, and an embedder/chat model pair.
type Pipeline struct {
	docs     store.Store
	graph    memory.GraphStore
	vstore   vectorstore.VectorStore
	embedder embedding.Embedder
	embedderModel string
	model    llm.ChatModel
	queue    FailureQueue
	opts     Options

	mu       sync.Mutex
	entities []store.Entity // local cache refreshed each run, read by graph-update's fuzzy resolver
}

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

func WithOptions(opts Options) Option   { return func(p *Pipeline) { p.opts = opts } }
func WithFailureQueue(q FailureQueue) Option { return func(p *Pipeline) { p.queue = q } }

// WithEmbedderModel names the embedding model written onto
// schema.Document.EmbeddingModel, since embedding.Embedder exposes no
// identifying method of its own.
func WithEmbedderModel(name string) Option { return func(p *Pipeline) { p.embedderModel = name } }

// New constructs a Pipeline. docs, graph, vstore, embedder, and model must
// be non-nil.
func New(docs store.Store, graph memory.GraphStore, vstore vectorstore.VectorStore, embedder embedding.Embedder, model llm.ChatModel, opts ...Option) (*Pipeline, error) {
	if docs == nil || graph == nil || vstore == nil || embedder == nil || model == nil {
		return nil, fmt.Errorf("ingest: docs, graph, vstore, embedder, and model are required")
	}
	p := &Pipeline{
		docs:     docs,
		graph:    graph,
		vstore:   vstore,
		embedder: embedder,
		model:    model,
		opts:     DefaultOptions(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue == nil {
		p.queue = newInMemoryQueue()
	}
	if p.opts.ExtractConcurrency <= 0 {
		p.opts.ExtractConcurrency = 4
	}
	if p.opts.SummarizeConcurrency <= 0 {
		p.opts.SummarizeConcurrency = 2
	}
	if p.opts.MaxContentChars <= 0 {
		p.opts.MaxContentChars = 50_000
	}
	if p.opts.MaxFileBytes <= 0 {
		p.opts.MaxFileBytes = 100 * 1024 * 1024
	}
	return p, nil
}

// docID hashes the canonical (absolute, cleaned) path per §4.3 step 2.
func docID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:])
}

// Ingest walks rootPath (a directory or single file) and runs every
// discovered file through the pipeline, returning a channel of Progress
// events the caller drains until it closes, and a function returning the
// final Report once the channel is closed.
func (p *Pipeline) Ingest(ctx context.Context, rootPath string) (<-chan Progress, func() Report) {
	out := make(chan Progress, 64)
	report := &Report{}
	var mu sync.Mutex

	go func() {
		defer close(out)

		paths, err := discover(rootPath, p.opts)
		if err != nil {
			out <- Progress{CurrentFile: rootPath, Stage: StageDiscover, Status: StatusFailed, Err: err}
			return
		}

		p.refreshEntityCache(ctx)

		total := len(paths)
		sem := make(chan struct{}, p.opts.ExtractConcurrency)
		var wg sync.WaitGroup

		for i, path := range paths {
			select {
			case <-ctx.Done():
				mu.Lock()
				report.Failed += total - i
				mu.Unlock()
				wg.Wait()
				return
			case sem <- struct{}{}:
			}

			wg.Add(1)
			go func(i int, path string) {
				defer wg.Done()
				defer func() { <-sem }()

				result := p.processFile(ctx, path, func(prog Progress) {
					prog.Index = i + 1
					prog.Total = total
					out <- prog
				})

				mu.Lock()
				switch result.Status {
				case StatusOK:
					report.Success++
				case StatusSkipped:
					report.Skipped++
				default:
					report.Failed++
				}
				mu.Unlock()
			}(i, path)
		}
		wg.Wait()
	}()

	return out, func() Report {
		mu.Lock()
		defer mu.Unlock()
		return *report
	}
}

// IngestFile runs the full per-file pipeline on a single path and returns
// its terminal result, per §4.3's `ingest_file(path)` contract.
func (p *Pipeline) IngestFile(ctx context.Context, path string) FileResult {
	p.refreshEntityCache(ctx)
	return p.processFile(ctx, path, func(Progress) {})
}

func (p *Pipeline) refreshEntityCache(ctx context.Context) {
	results, err := p.graph.Query(ctx, "")
	if err != nil {
		return
	}
	var entities []store.Entity
	for _, r := range results {
		for _, e := range r.Entities {
			entities = append(entities, store.Entity{ID: e.ID, Type: e.Type, Name: nameOf(e), Properties: e.Properties})
		}
	}
	p.mu.Lock()
	p.entities = entities
	p.mu.Unlock()
}

func nameOf(e memory.Entity) string {
	if n, ok := e.Properties["name"].(string); ok {
		return n
	}
	return e.ID
}

// processFile runs one file through every stage, emitting progress and
// returning the terminal FileResult. Per-file errors never abort the run
// (§4.3 Concurrency).
func (p *Pipeline) processFile(ctx context.Context, path string, emit func(Progress)) FileResult {
	id := docID(path)
	emit(Progress{CurrentFile: path, Stage: StageDiscover, Status: StatusOK, DocID: id})

	skip, mtime, size, err := p.checkIdempotence(ctx, path, id)
	if err != nil {
		emit(Progress{CurrentFile: path, Stage: StageDiscover, Status: StatusFailed, DocID: id, Err: err})
		return FileResult{Path: path, DocID: id, Status: StatusFailed, Err: err}
	}
	if skip {
		emit(Progress{CurrentFile: path, Stage: StageDiscover, Status: StatusSkipped, DocID: id})
		return FileResult{Path: path, DocID: id, Status: StatusSkipped}
	}

	extracted, err := p.extract(ctx, path)
	if err != nil {
		emit(Progress{CurrentFile: path, Stage: StageExtract, Status: StatusFailed, DocID: id, Err: err})
		return FileResult{Path: path, DocID: id, Status: StatusFailed, Err: err}
	}
	emit(Progress{CurrentFile: path, Stage: StageExtract, Status: StatusOK, DocID: id})

	normalized := normalize(extracted.RawText, p.opts.MaxContentChars)
	emit(Progress{CurrentFile: path, Stage: StageNormalize, Status: StatusOK, DocID: id})

	summary, partial := p.summarize(ctx, normalized)
	emit(Progress{CurrentFile: path, Stage: StageSummarize, Status: StatusOK, DocID: id})

	vec, err := p.embedder.EmbedSingle(ctx, summary.Summary)
	if err != nil {
		emit(Progress{CurrentFile: path, Stage: StageEmbed, Status: StatusFailed, DocID: id, Err: err})
		return FileResult{Path: path, DocID: id, Status: StatusFailed, Err: err}
	}
	if dim := p.embedder.Dimensions(); dim != len(vec) {
		err := fmt.Errorf("ingest: embedder produced dimension %d, expected %d", len(vec), dim)
		emit(Progress{CurrentFile: path, Stage: StageEmbed, Status: StatusFailed, DocID: id, Err: err})
		return FileResult{Path: path, DocID: id, Status: StatusFailed, Err: err}
	}
	emit(Progress{CurrentFile: path, Stage: StageEmbed, Status: StatusOK, DocID: id})

	if err := p.updateGraph(ctx, id, summary); err != nil {
		// Graph updates are best-effort: a bad extraction shouldn't block
		// the document itself from becoming searchable.
		emit(Progress{CurrentFile: path, Stage: StageGraphUpdate, Status: StatusFailed, DocID: id, Err: err})
	} else {
		emit(Progress{CurrentFile: path, Stage: StageGraphUpdate, Status: StatusOK, DocID: id})
	}

	doc := schema.Document{
		ID:              id,
		Content:         summary.Summary,
		Filename:        filepath.Base(path),
		Path:            path,
		FileType:        extractExt(path),
		DocType:         summary.DocumentType,
		Summary:         summary.Summary,
		DetailedSummary: summary.Summary,
		Keywords:        summary.Keywords,
		Entities:        summary.Entities,
		Topics:          summary.Topics,
		FullContent:     schema.TruncateFullContent(normalized),
		Embedding:       vec,
		EmbeddingModel:  p.embedderModel,
		CreatedAt:       mtime,
		UpdatedAt:       time.Now().UTC(),
		FileSize:        size,
		Metadata: map[string]any{
			"partial_index": partial,
		},
	}

	if err := p.upsert(ctx, doc); err != nil {
		p.queue.Enqueue(doc)
		emit(Progress{CurrentFile: path, Stage: StageUpsert, Status: StatusFailed, DocID: id, Err: err})
		return FileResult{Path: path, DocID: id, Status: StatusFailed, Err: err}
	}
	emit(Progress{CurrentFile: path, Stage: StageUpsert, Status: StatusOK, DocID: id})

	return FileResult{Path: path, DocID: id, Status: StatusOK}
}

func (p *Pipeline) checkIdempotence(_ context.Context, path, id string) (skip bool, mtime time.Time, size int64, err error) {
	info, statErr := statPath(path)
	if statErr != nil {
		return false, time.Time{}, 0, statErr
	}
	existing, getErr := p.docs.GetDocument(context.Background(), id)
	if getErr == nil && !existing.UpdatedAt.Before(info.ModTime()) {
		return true, existing.CreatedAt, existing.FileSize, nil
	}
	created := info.ModTime()
	if getErr == nil {
		created = existing.CreatedAt
	}
	return false, created, info.Size(), nil
}

func (p *Pipeline) upsert(ctx context.Context, doc schema.Document) error {
	if err := p.docs.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("ingest: save document: %w", err)
	}
	if err := p.vstore.Add(ctx, []schema.Document{doc}, [][]float32{doc.Embedding}); err != nil {
		return fmt.Errorf("ingest: index document: %w", err)
	}
	return nil
}

// Document returns a previously-indexed document by ID, per §6.1's
// GetDocument RPC.
func (p *Pipeline) Document(ctx context.Context, id string) (schema.Document, error) {
	return p.docs.GetDocument(ctx, id)
}

// DeleteDocument removes a document and its vector index entry, per §6.1's
// DeleteDocument RPC. Graph edges are left in place for the same reason
// documented on watch.go's handleDelete.
func (p *Pipeline) DeleteDocument(ctx context.Context, id string) error {
	if err := p.docs.DeleteDocument(ctx, id); err != nil {
		return err
	}
	return p.vstore.Delete(ctx, []string{id})
}

// retryQueueInterval is §4.3's "retry every 30s" for buffered
// storage-failure documents.
const retryQueueInterval = 30 * time.Second

// RunFailureQueue drains and retries p's FailureQueue every 30s until ctx
// is cancelled. Callers run this in a background goroutine alongside Ingest.
func (p *Pipeline) RunFailureQueue(ctx context.Context) {
	ticker := time.NewTicker(retryQueueInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, doc := range p.queue.Drain() {
				if err := p.upsert(ctx, doc); err != nil {
					p.queue.Enqueue(doc)
				}
			}
		}
	}
}
