package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tricount/internal/core"
	"tricount/internal/log"
	"tricount/internal/sheets"
	"tricount/internal/storage"
	"tricount/internal/tricount"
)

// RunRecorder keeps the export history. *storage.Journal implements it.
type RunRecorder interface {
	RecordExport(ctx context.Context, rec storage.ExportRecord) error
}

// Notifier announces export outcomes. *amqp.Client implements it.
type Notifier interface {
	NotifyExported(ctx context.Context, runID, identifier string, registryID int64, title, ref string) error
	NotifyFailed(ctx context.Context, runID, identifier, stage string, cause error) error
}

// ProcessorConfig holds configuration for the batch processor
type ProcessorConfig struct {
	// Concurrency bounds how many identifiers are in flight (default: 1)
	Concurrency int

	// Recorder and Notifier are optional; their failures are only logged.
	Recorder RunRecorder
	Notifier Notifier
}

// DefaultProcessorConfig returns sensible defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{Concurrency: 1}
}

// Processor exports a batch of registries: one authentication, then
// fetch, parse, derive and export per identifier.
type Processor struct {
	source tricount.Source
	writer sheets.WorkbookWriter
	config ProcessorConfig

	// one writer per output path at a time
	mu    sync.Mutex
	paths map[string]*sync.Mutex
}

// NewProcessor creates a new batch processor
func NewProcessor(source tricount.Source, writer sheets.WorkbookWriter, config ProcessorConfig) *Processor {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Processor{
		source: source,
		writer: writer,
		config: config,
		paths:  make(map[string]*sync.Mutex),
	}
}

// Process exports every identifier into folder. It returns nil when all
// succeed, an *AuthError when no session could be established, and a
// *BatchError listing the failed identifiers otherwise. Successful exports
// are kept when others fail.
func (p *Processor) Process(ctx context.Context, identifiers []string, folder string) error {
	if len(identifiers) == 0 {
		return nil
	}
	logger := log.FromContext(ctx).WithComponent(log.ComponentBatch)

	session, err := p.source.Authenticate(ctx)
	if err != nil {
		return &AuthError{Err: err}
	}

	runID := uuid.NewString()
	start := time.Now()
	logger.InfoContext(ctx, "Processing registries",
		log.FieldCount, len(identifiers),
		"run_id", runID,
		"concurrency", p.config.Concurrency)

	results := make([]*ItemError, len(identifiers))
	var g errgroup.Group
	g.SetLimit(p.config.Concurrency)

	for i, identifier := range identifiers {
		if err := ctx.Err(); err != nil {
			results[i] = p.fail(ctx, logger, runID, identifier, StageFetch, err)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = p.fail(ctx, logger, runID, identifier, StageFetch, err)
				return nil
			}
			results[i] = p.processOne(ctx, logger, session, runID, identifier, folder)
			return nil
		})
	}
	_ = g.Wait()

	var failures []*ItemError
	for _, r := range results {
		if r != nil {
			failures = append(failures, r)
		}
	}

	logger.InfoContext(ctx, "Batch finished",
		log.FieldCount, len(identifiers),
		log.FieldFailures, len(failures),
		log.FieldDuration, time.Since(start).Milliseconds())

	if len(failures) == 0 {
		return nil
	}
	return &BatchError{Failures: failures, Total: len(identifiers)}
}

func (p *Processor) processOne(ctx context.Context, logger *log.Logger, session tricount.Session, runID, identifier, folder string) *ItemError {
	raw, err := p.source.FetchRegistry(ctx, session, identifier)
	if err != nil {
		return p.fail(ctx, logger, runID, identifier, StageFetch, err)
	}

	registry, err := core.ParseRegistry(raw)
	if err != nil {
		return p.fail(ctx, logger, runID, identifier, StageParse, err)
	}

	tables, err := registry.Tables()
	if err != nil {
		return p.fail(ctx, logger, runID, identifier, StageDerive, err)
	}

	name := core.SafeFilename(registry)
	unlock := p.lockPath(filepath.Join(folder, name))
	ref, err := p.writer.WriteWorkbook(ctx, folder, name, tables)
	unlock()
	if err != nil {
		return p.fail(ctx, logger, runID, identifier, StageExport, fmt.Errorf("write workbook: %w", err))
	}

	logger.InfoContext(ctx, "Registry saved",
		log.FieldIdentifier, identifier,
		log.FieldRegistryID, registry.ID,
		log.FieldPath, ref)

	p.record(ctx, logger, storage.ExportRecord{
		RunID:      runID,
		Identifier: identifier,
		RegistryID: registry.ID,
		Title:      registry.Title,
		Ref:        ref,
		Status:     storage.StatusExported,
	})
	if p.config.Notifier != nil {
		if err := p.config.Notifier.NotifyExported(ctx, runID, identifier, registry.ID, registry.Title, ref); err != nil {
			logger.WarnContext(ctx, "Failed to publish export event", log.NewFields().WithIdentifier(identifier).WithError(err).ToSlice()...)
		}
	}
	return nil
}

// lockPath serializes writes that target the same workbook, e.g. a repeated
// identifier under concurrency.
func (p *Processor) lockPath(path string) func() {
	p.mu.Lock()
	m, ok := p.paths[path]
	if !ok {
		m = &sync.Mutex{}
		p.paths[path] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (p *Processor) fail(ctx context.Context, logger *log.Logger, runID, identifier string, stage Stage, err error) *ItemError {
	itemErr := &ItemError{Identifier: identifier, Stage: stage, Err: err}
	logger.WarnContext(ctx, "Registry failed",
		log.FieldIdentifier, identifier,
		log.FieldStage, string(stage),
		log.FieldError, err)

	p.record(ctx, logger, storage.ExportRecord{
		RunID:      runID,
		Identifier: identifier,
		Status:     storage.StatusFailed,
		Stage:      string(stage),
		Error:      err.Error(),
	})
	if p.config.Notifier != nil {
		if nerr := p.config.Notifier.NotifyFailed(ctx, runID, identifier, string(stage), err); nerr != nil {
			logger.WarnContext(ctx, "Failed to publish failure event", log.NewFields().WithIdentifier(identifier).WithError(nerr).ToSlice()...)
		}
	}
	return itemErr
}

func (p *Processor) record(ctx context.Context, logger *log.Logger, rec storage.ExportRecord) {
	if p.config.Recorder == nil {
		return
	}
	// The journal outlives a canceled run.
	if err := p.config.Recorder.RecordExport(context.WithoutCancel(ctx), rec); err != nil {
		logger.WarnContext(ctx, "Failed to record export", log.NewFields().WithIdentifier(rec.Identifier).WithError(err).ToSlice()...)
	}
}
