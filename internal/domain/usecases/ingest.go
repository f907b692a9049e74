// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xcro3dile/localrag-fts/internal/domain/chunker"
	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

// IngestUseCase rebuilds the index from a directory of documents.
type IngestUseCase struct {
	source  ports.DocumentSource
	chunker *chunker.Chunker
	store   ports.IndexStore
	logger  *zap.Logger

	// mu serializes whole passes so two rebuilds never interleave their
	// enumerate/replace steps.
	mu sync.Mutex
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(
	source ports.DocumentSource,
	ch *chunker.Chunker,
	store ports.IndexStore,
	logger *zap.Logger,
) *IngestUseCase {
	if ch == nil {
		ch = chunker.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUseCase{
		source:  source,
		chunker: ch,
		store:   store,
		logger:  logger,
	}
}

// IngestDirectory replaces the whole index with the fragments of every
// eligible file under dir.
//
// A missing directory is zero work: the index is left untouched and the report
// is empty. Files that cannot be read are listed in Skipped and logged; they
// never abort the pass. Storage failures are returned and leave the previous
// index in place.
func (uc *IngestUseCase) IngestDirectory(ctx context.Context, dir string) (*entities.IngestReport, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	start := time.Now()
	report := &entities.IngestReport{
		RunID:     uuid.NewString(),
		Directory: dir,
	}
	log := uc.logger.With(zap.String("run_id", report.RunID), zap.String("dir", dir))

	paths, unlisted, err := uc.source.List(ctx, dir)
	if err != nil {
		if errors.Is(err, entities.ErrDirectoryNotFound) {
			log.Info("documents directory not found, nothing to ingest")
			report.Duration = time.Since(start)
			return report, nil
		}
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	for _, fe := range unlisted {
		log.Warn("skipping unreadable entry", zap.String("path", fe.Path), zap.Error(fe.Err))
		report.Skipped = append(report.Skipped, fe)
	}

	var fragments []entities.Fragment
	for _, path := range paths {
		doc, err := uc.source.Load(ctx, dir, path)
		if err != nil {
			var fe *entities.FileError
			if !errors.As(err, &fe) {
				return nil, fmt.Errorf("loading %s: %w", path, err)
			}
			log.Warn("skipping unreadable file", zap.String("path", fe.Path), zap.Error(fe.Err))
			report.Skipped = append(report.Skipped, *fe)
			continue
		}
		report.Files++
		fragments = append(fragments, uc.chunker.Fragments(doc)...)
	}

	n, err := uc.store.Replace(ctx, fragments)
	if err != nil {
		return nil, fmt.Errorf("replacing index: %w", err)
	}
	report.Fragments = n
	report.Duration = time.Since(start)

	log.Info("ingestion complete",
		zap.Int("files", report.Files),
		zap.Int("fragments", report.Fragments),
		zap.Int("skipped", len(report.Skipped)),
		zap.Duration("took", report.Duration),
	)
	return report, nil
}
