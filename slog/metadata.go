package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/kalisz/bookdl"
)

// Ensure LoggingMetadataStore implements bookdl.MetadataStore.
var _ bookdl.MetadataStore = (*LoggingMetadataStore)(nil)

// LoggingMetadataStore wraps a MetadataStore with debug logging.
type LoggingMetadataStore struct {
	next   bookdl.MetadataStore
	logger *slog.Logger
}

// NewLoggingMetadataStore creates a new LoggingMetadataStore.
func NewLoggingMetadataStore(next bookdl.MetadataStore, logger *slog.Logger) *LoggingMetadataStore {
	return &LoggingMetadataStore{next: next, logger: logger}
}

// Save delegates to the wrapped store and logs the persisted source.
// The id attribute is read after delegation, so it reflects an ID the
// store derived during the save.
func (s *LoggingMetadataStore) Save(ctx context.Context, source *bookdl.Source) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("metadata save",
			"id", source.ID,
			"chapters", len(source.Chapters),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, source)
}

// Load delegates to the wrapped store and logs the lookup.
func (s *LoggingMetadataStore) Load(ctx context.Context, id string) (source *bookdl.Source, err error) {
	defer func(begin time.Time) {
		s.logger.Info("metadata load",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Load(ctx, id)
}

// FindBest delegates to the wrapped store and logs which source was chosen.
func (s *LoggingMetadataStore) FindBest(ctx context.Context) (source *bookdl.Source, err error) {
	defer func(begin time.Time) {
		id := ""
		if source != nil {
			id = source.ID
		}
		s.logger.Info("metadata find",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindBest(ctx)
}

// List delegates to the wrapped store and logs the source count.
func (s *LoggingMetadataStore) List(ctx context.Context) (sources []*bookdl.Source, err error) {
	defer func(begin time.Time) {
		s.logger.Info("metadata list",
			"count", len(sources),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.List(ctx)
}
