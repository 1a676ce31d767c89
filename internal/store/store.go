// Package store holds the authoritative collection of document records:
// in-memory for reads, written through to local persistence for durability,
// and mirrored to an optional remote store best-effort.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/application/port"
	"github.com/fhuonder/belegscan/internal/domain/entity"
)

// mirrorTimeout bounds one fire-and-forget mirror write.
const mirrorTimeout = 15 * time.Second

// Store keys document records by ID. All mutations are serialized and update
// the local repository before returning; the remote mirror is updated
// asynchronously and its failures never roll back a local mutation.
//
// An Upsert for an ID that was concurrently removed re-creates the record.
// This keeps the batch processor's completion write authoritative: a user
// deleting a mid-flight document sees it reappear with its final status.
type Store struct {
	local  port.DocumentRepository
	mirror port.MirrorStore // may be nil
	logger *zap.Logger

	mu      sync.RWMutex
	records map[string]*entity.DocumentRecord
	order   []string // most recent first

	mirrorWG sync.WaitGroup
}

// New creates a store over the given local repository. mirror may be nil.
func New(local port.DocumentRepository, mirror port.MirrorStore, logger *zap.Logger) *Store {
	return &Store{
		local:   local,
		mirror:  mirror,
		logger:  logger,
		records: make(map[string]*entity.DocumentRecord),
	}
}

// Load reconstructs the in-memory collection from local persistence. It is
// called once at startup, before any mutation.
func (s *Store) Load(ctx context.Context) error {
	recs, err := s.local.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted documents: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*entity.DocumentRecord, len(recs))
	s.order = make([]string, 0, len(recs))
	for _, rec := range recs {
		s.records[rec.ID] = rec.Clone()
		s.order = append(s.order, rec.ID)
	}

	s.logger.Info("Document records loaded from local store", zap.Int("count", len(recs)))
	return nil
}

// Upsert inserts or replaces a record. The local write completes before the
// in-memory state is considered durable and before Upsert returns; the
// mirror write is fired without waiting.
func (s *Store) Upsert(ctx context.Context, rec *entity.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.local.Save(ctx, rec); err != nil {
		return fmt.Errorf("local persistence failed for document %s: %w", rec.ID, err)
	}

	if _, exists := s.records[rec.ID]; !exists {
		s.order = append([]string{rec.ID}, s.order...)
	}
	s.records[rec.ID] = rec.Clone()

	s.mirrorAsync(func(ctx context.Context, m port.MirrorStore) error {
		return m.Save(ctx, rec.Clone())
	}, rec.ID)

	return nil
}

// Remove deletes a record from every tier. Removing an unknown ID is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.local.Delete(ctx, id); err != nil {
		return fmt.Errorf("local delete failed for document %s: %w", id, err)
	}

	if _, exists := s.records[id]; exists {
		delete(s.records, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}

	s.mirrorAsync(func(ctx context.Context, m port.MirrorStore) error {
		return m.Delete(ctx, id)
	}, id)

	return nil
}

// RemoveAll clears the collection. Idempotent: clearing an empty store
// succeeds.
func (s *Store) RemoveAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.local.DeleteAll(ctx); err != nil {
		return fmt.Errorf("local clear failed: %w", err)
	}

	s.records = make(map[string]*entity.DocumentRecord)
	s.order = nil

	s.mirrorAsync(func(ctx context.Context, m port.MirrorStore) error {
		return m.DeleteAll(ctx)
	}, "*")

	return nil
}

// Get returns a copy of one record, or nil if absent.
func (s *Store) Get(id string) *entity.DocumentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	return rec.Clone()
}

// List returns copies of all records, most recently inserted first. The
// order is stable across calls: insertion order governs, updates do not
// reorder.
func (s *Store) List() []*entity.DocumentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.DocumentRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out
}

// Flush waits for outstanding mirror writes, used on shutdown and in tests.
func (s *Store) Flush() {
	s.mirrorWG.Wait()
}

// mirrorAsync fires a best-effort mirror operation. Errors are logged and
// swallowed: the local tier is authoritative and the mirror's failure modes
// must not leak into its contract.
func (s *Store) mirrorAsync(op func(context.Context, port.MirrorStore) error, id string) {
	if s.mirror == nil {
		return
	}

	s.mirrorWG.Add(1)
	go func() {
		defer s.mirrorWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := op(ctx, s.mirror); err != nil {
			s.logger.Warn("Remote mirror write failed",
				zap.String("document_id", id),
				zap.Error(err))
		}
	}()
}
