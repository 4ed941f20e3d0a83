package mock

import "github.com/kalisz/bookdl"

var _ bookdl.ChapterStore = (*ChapterStore)(nil)

// ChapterStore is a mock implementation of bookdl.ChapterStore.
type ChapterStore struct {
	ExistsFn func(sourceID, title string) bool
	WriteFn  func(sourceID, title, body string) error
	ReadFn   func(sourceID, title string) (string, error)
	ListFn   func(sourceID string) ([]string, error)
	DirFn    func(sourceID string) string
}

func (s *ChapterStore) Exists(sourceID, title string) bool {
	return s.ExistsFn(sourceID, title)
}

func (s *ChapterStore) Write(sourceID, title, body string) error {
	return s.WriteFn(sourceID, title, body)
}

func (s *ChapterStore) Read(sourceID, title string) (string, error) {
	return s.ReadFn(sourceID, title)
}

func (s *ChapterStore) List(sourceID string) ([]string, error) {
	return s.ListFn(sourceID)
}

func (s *ChapterStore) Dir(sourceID string) string {
	return s.DirFn(sourceID)
}
