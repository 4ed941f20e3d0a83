// Package fs provides file-based storage for source metadata and
// downloaded chapters.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kalisz/bookdl"
)

// Ensure MetadataStore implements bookdl.MetadataStore at compile time.
var _ bookdl.MetadataStore = (*MetadataStore)(nil)

// MetadataStore persists sources as one JSON file per source id.
// Records are plain files on purpose: "most recently written" is file
// mtime, and deleting a file forgets the source.
type MetadataStore struct {
	dir string
}

// NewMetadataStore creates a MetadataStore rooted at dir.
// The directory is created on first Save.
func NewMetadataStore(dir string) *MetadataStore {
	return &MetadataStore{dir: dir}
}

func (s *MetadataStore) path(id string) string {
	return filepath.Join(s.dir, "source_"+id+".json")
}

// Save persists the source, deriving its ID from ListURL when unset, and
// overwrites any prior record with the same ID. The write is atomic.
func (s *MetadataStore) Save(ctx context.Context, source *bookdl.Source) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := source.Validate(); err != nil {
		return err
	}
	if source.ID == "" {
		source.ID = bookdl.SourceID(source.ListURL)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(source); err != nil {
		return err
	}

	final := s.path(source.ID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, []byte(buf.String()), 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Load retrieves a source by ID. Absent and malformed records are both
// ENOTFOUND: a record this store cannot parse is as good as missing.
func (s *MetadataStore) Load(ctx context.Context, id string) (*bookdl.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := readSource(s.path(id))
	if err != nil {
		return nil, bookdl.Errorf(bookdl.ENOTFOUND, "source %q not found", id)
	}
	return source, nil
}

// FindBest returns the most recently modified readable source.
func (s *MetadataStore) FindBest(ctx context.Context) (*bookdl.Source, error) {
	sources, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, bookdl.Errorf(bookdl.ENOTFOUND, "no stored sources")
	}
	return sources[0], nil
}

// List returns all readable sources, newest first by file modification
// time. Malformed records are skipped.
func (s *MetadataStore) List(ctx context.Context) ([]*bookdl.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	type record struct {
		source *bookdl.Source
		mtime  int64
	}
	var records []record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "source_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		source, err := readSource(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		records = append(records, record{source: source, mtime: info.ModTime().UnixNano()})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].mtime > records[j].mtime })

	sources := make([]*bookdl.Source, len(records))
	for i, r := range records {
		sources[i] = r.source
	}
	return sources, nil
}

// readSource parses a record defensively: any shape it cannot trust is an
// error so callers treat the record as absent.
func readSource(path string) (*bookdl.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var source bookdl.Source
	if err := json.Unmarshal(data, &source); err != nil {
		return nil, err
	}
	if source.ListURL == "" {
		return nil, bookdl.Errorf(bookdl.EINVALID, "record missing list URL")
	}
	return &source, nil
}
