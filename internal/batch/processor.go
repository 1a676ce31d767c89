// Package batch orchestrates sequential processing of uploaded document
// batches against the extraction, rate-resolution and store components.
package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/application/port"
	"github.com/fhuonder/belegscan/internal/domain/entity"
	"github.com/fhuonder/belegscan/internal/extraction"
	"github.com/fhuonder/belegscan/internal/rates"
	"github.com/fhuonder/belegscan/internal/store"
)

// ErrBatchRunning is returned by Submit while a previous batch is in flight.
var ErrBatchRunning = errors.New("a batch is already being processed")

// File is one uploaded document awaiting processing.
type File struct {
	Name string
	Type string
	Data []byte
}

// ProgressFunc receives a notification after each processed document.
type ProgressFunc func(processed, total int)

// Processor runs one batch at a time, strictly sequentially. One document is
// in flight at any moment: the bottleneck is an external rate-limited API,
// so parallel fan-out buys nothing and costs quota.
type Processor struct {
	store      *store.Store
	extractor  port.DocumentExtractor
	resolver   *rates.Resolver
	logger     *zap.Logger
	newID      func() string
	now        func() time.Time
	onProgress ProgressFunc

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	processed int
	total     int
	wg        sync.WaitGroup
}

// Option configures a Processor.
type Option func(*Processor)

// WithProgress registers a per-document progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Processor) {
		p.onProgress = fn
	}
}

// WithClock overrides the time source for record creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

// New creates a batch processor. The extractor is either the remote gateway
// or the filename-heuristic fallback; the caller decides which based on
// configuration.
func New(st *store.Store, extractor port.DocumentExtractor, resolver *rates.Resolver, logger *zap.Logger, opts ...Option) *Processor {
	p := &Processor{
		store:     st,
		extractor: extractor,
		resolver:  resolver,
		logger:    logger,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type queueItem struct {
	record *entity.DocumentRecord
	file   File
}

// Submit enqueues a batch. Placeholder records (status processing) are
// created and persisted synchronously in file order before Submit returns,
// so consumers immediately observe every queued item; extraction then runs
// in the background. Returns the new record IDs in file order.
func (p *Processor) Submit(ctx context.Context, files []File) ([]string, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, ErrBatchRunning
	}
	p.running = true
	p.processed = 0
	p.total = len(files)
	p.mu.Unlock()

	items := make([]queueItem, 0, len(files))
	ids := make([]string, 0, len(files))
	for _, f := range files {
		rec := entity.NewDocumentRecord(p.newID(), f.Name, f.Type, p.now())
		if err := p.store.Upsert(ctx, rec); err != nil {
			p.setIdle()
			return nil, err
		}
		items = append(items, queueItem{record: rec, file: f})
		ids = append(ids, rec.ID)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(runCtx, items)

	return ids, nil
}

// Stop requests cooperative cancellation. The document currently in flight
// completes or errors normally; no further documents are started. Remaining
// queued records stay in processing status.
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// Running reports whether a batch is currently being processed, used to gate
// re-submission.
func (p *Processor) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Progress reports how many documents of the current or last batch have
// reached a terminal status.
func (p *Processor) Progress() (processed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.total
}

// Wait blocks until the current batch, if any, has finished.
func (p *Processor) Wait() {
	p.wg.Wait()
}

func (p *Processor) run(ctx context.Context, items []queueItem) {
	defer p.wg.Done()
	defer p.setIdle()

	total := len(items)
	completed, failed, abandoned := 0, 0, 0
	halted := false

	for i, item := range items {
		// Cancellation is checked only here, at the top of each iteration.
		// Abandoned records keep their processing status.
		if ctx.Err() != nil {
			abandoned = total - i
			p.logger.Info("Batch processing stopped",
				zap.Int("abandoned", abandoned))
			break
		}

		err := p.processItem(ctx, item)
		if err == nil {
			completed++
		} else {
			failed++
			if errors.Is(err, extraction.ErrQuotaExhausted) {
				// Every subsequent call would fail the same way; halting
				// avoids a misleading wall of per-document errors.
				abandoned = total - i - 1
				halted = true
				p.mu.Lock()
				p.processed = completed + failed
				p.mu.Unlock()
				p.logger.Warn("Extraction quota exhausted, halting batch",
					zap.Int("abandoned", abandoned))
				break
			}
		}

		p.mu.Lock()
		p.processed = completed + failed
		p.mu.Unlock()

		if p.onProgress != nil {
			p.onProgress(completed+failed, total)
		}
	}

	p.logger.Info("Batch processing finished",
		zap.Int("total", total),
		zap.Int("completed", completed),
		zap.Int("failed", failed),
		zap.Int("abandoned", abandoned),
		zap.Bool("quota_halted", halted))
}

// processItem runs one document through extraction and conversion, then
// writes the terminal status. The returned error is only used for batch
// flow control; it is already reflected on the record.
func (p *Processor) processItem(ctx context.Context, item queueItem) error {
	rec := item.record

	// The extraction call must not be preempted by Stop; cancellation is
	// cooperative and only takes effect between documents. The gateway
	// carries its own hard timeout.
	callCtx := context.WithoutCancel(ctx)

	result, err := p.extractor.Extract(callCtx, port.ExtractionRequest{
		FileData: item.file.Data,
		FileName: item.file.Name,
		FileType: item.file.Type,
	})
	if err != nil {
		if markErr := rec.MarkFailed(extraction.UserMessage(err)); markErr != nil {
			p.logger.Error("Failed to mark document as errored",
				zap.String("document_id", rec.ID),
				zap.Error(markErr))
		}
		if upsertErr := p.store.Upsert(callCtx, rec); upsertErr != nil {
			p.logger.Error("Failed to persist errored document",
				zap.String("document_id", rec.ID),
				zap.Error(upsertErr))
		}
		p.logger.Warn("Document processing failed",
			zap.String("document_id", rec.ID),
			zap.String("file_name", rec.FileName),
			zap.Error(err))
		return err
	}

	data := result.Data
	data.TotalAmountCHF = p.resolver.ConvertToCHF(callCtx, data.TotalAmount, data.OriginalCurrency)
	data.VATAmountCHF = p.resolver.ConvertToCHF(callCtx, data.VATAmount, data.OriginalCurrency)
	data.NetAmountCHF = p.resolver.ConvertToCHF(callCtx, data.NetAmount, data.OriginalCurrency)

	if err := rec.MarkCompleted(result.DocumentType, data); err != nil {
		p.logger.Error("Failed to mark document as completed",
			zap.String("document_id", rec.ID),
			zap.Error(err))
		return err
	}
	if err := p.store.Upsert(callCtx, rec); err != nil {
		// Local persistence is the durability guarantee; surface loudly.
		p.logger.Error("Failed to persist completed document",
			zap.String("document_id", rec.ID),
			zap.Error(err))
		return err
	}

	p.logger.Info("Document processed",
		zap.String("document_id", rec.ID),
		zap.String("file_name", rec.FileName),
		zap.String("document_type", rec.DocumentType.String()))
	return nil
}

func (p *Processor) setIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
