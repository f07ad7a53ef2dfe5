// Package search keeps a full-text index of works for the admin search box.
package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/domain"
	"github.com/galeriaarte/galeria-server/internal/logger"
)

// SearchIndex wraps a Bleve index of works. Safe for concurrent use; the
// mutex guards the index handle across rebuilds.
type SearchIndex struct {
	index  bleve.Index
	path   string // empty for an in-memory index
	logger *logger.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string // directory for index storage; empty keeps it in memory
	Logger   *logger.Logger
}

// mappingVersion is bumped whenever buildIndexMapping changes, forcing a
// rebuild of on-disk indexes.
const mappingVersion = "1"

// NewSearchIndex opens the index under opts.DataPath, recreating it when it
// is missing, corrupt or built with an older mapping.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &SearchIndex{index: index, logger: log}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "works.bleve")
	versionPath := filepath.Join(opts.DataPath, "works.version")

	var index bleve.Index
	if _, err := os.Stat(indexPath); err == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil || string(existing) != mappingVersion:
			log.Info("search index mapping changed, rebuilding", "version", mappingVersion)
		default:
			if index, err = bleve.Open(indexPath); err != nil {
				log.Warn("failed to open search index, recreating", "path", indexPath, "error", err)
				index = nil
			}
		}
		if index == nil {
			if err := os.RemoveAll(indexPath); err != nil {
				return nil, fmt.Errorf("remove old index: %w", err)
			}
		}
	}

	if index == nil {
		var err error
		if index, err = bleve.New(indexPath, buildIndexMapping()); err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			log.Warn("failed to write search version file", "error", err)
		}
		log.Info("created search index", "path", indexPath)
	}

	return &SearchIndex{index: index, path: indexPath, logger: log}, nil
}

// Close closes the index.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexWork adds or replaces a work.
func (s *SearchIndex) IndexWork(_ context.Context, w domain.Work) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := NewWorkDocument(w)
	return s.index.Index(doc.ID, doc.ToMap())
}

// DeleteWork removes a work.
func (s *SearchIndex) DeleteWork(_ context.Context, id uuid.UUID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id.String())
}

// DocumentCount returns the number of indexed works.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild replaces the index contents with works.
func (s *SearchIndex) Rebuild(works []domain.Work) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index

	batch := index.NewBatch()
	for _, w := range works {
		doc := NewWorkDocument(w)
		if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	s.logger.Info("rebuilt search index", "works", len(works))
	return nil
}
