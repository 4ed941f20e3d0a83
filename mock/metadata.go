package mock

import (
	"context"

	"github.com/kalisz/bookdl"
)

var _ bookdl.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is a mock implementation of bookdl.MetadataStore.
type MetadataStore struct {
	SaveFn     func(ctx context.Context, source *bookdl.Source) error
	LoadFn     func(ctx context.Context, id string) (*bookdl.Source, error)
	FindBestFn func(ctx context.Context) (*bookdl.Source, error)
	ListFn     func(ctx context.Context) ([]*bookdl.Source, error)
}

func (s *MetadataStore) Save(ctx context.Context, source *bookdl.Source) error {
	return s.SaveFn(ctx, source)
}

func (s *MetadataStore) Load(ctx context.Context, id string) (*bookdl.Source, error) {
	return s.LoadFn(ctx, id)
}

func (s *MetadataStore) FindBest(ctx context.Context) (*bookdl.Source, error) {
	return s.FindBestFn(ctx)
}

func (s *MetadataStore) List(ctx context.Context) ([]*bookdl.Source, error) {
	return s.ListFn(ctx)
}
