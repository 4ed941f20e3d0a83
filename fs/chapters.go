package fs

import (
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/kalisz/bookdl"
)

// Ensure ChapterStore implements bookdl.ChapterStore at compile time.
var _ bookdl.ChapterStore = (*ChapterStore)(nil)

// ChapterStore persists downloaded chapters under
// <dir>/chapters_<sourceID>/<sanitized title>.html. The presence of a
// chapter's file is the idempotence check for downloads: chapters whose
// titles sanitize to the same name share one file.
type ChapterStore struct {
	dir string
}

// NewChapterStore creates a ChapterStore rooted at dir.
func NewChapterStore(dir string) *ChapterStore {
	return &ChapterStore{dir: dir}
}

// Dir returns the output directory for a source.
func (s *ChapterStore) Dir(sourceID string) string {
	return filepath.Join(s.dir, "chapters_"+sourceID)
}

// Path returns the output file path for a chapter title.
func (s *ChapterStore) Path(sourceID, title string) string {
	return filepath.Join(s.Dir(sourceID), bookdl.SanitizeTitle(title)+".html")
}

// Exists reports whether the chapter's output file is already present.
func (s *ChapterStore) Exists(sourceID, title string) bool {
	_, err := os.Stat(s.Path(sourceID, title))
	return err == nil
}

// Write persists the chapter document atomically: the content is written
// to a temporary file in the target directory and renamed into place, so
// a partially written chapter is never observable.
func (s *ChapterStore) Write(sourceID, title, body string) error {
	dir := s.Dir(sourceID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".chapter-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(FormatChapter(title, body)); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.Path(sourceID, title)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Read returns the stored chapter document.
func (s *ChapterStore) Read(sourceID, title string) (string, error) {
	data, err := os.ReadFile(s.Path(sourceID, title))
	if os.IsNotExist(err) {
		return "", bookdl.Errorf(bookdl.ENOTFOUND, "chapter %q not downloaded", title)
	} else if err != nil {
		return "", err
	}
	return string(data), nil
}

// List returns the file names of all stored chapters for the source,
// sorted lexically. An absent source directory yields an empty list.
func (s *ChapterStore) List(sourceID string) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(sourceID))
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// FormatChapter wraps extracted chapter text in the stored document shape:
// an h1 title followed by the content division. Text is entity-escaped so
// the document parses back to the exact text that was written.
func FormatChapter(title, body string) string {
	var b strings.Builder
	b.WriteString("<h1>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</h1>\n")
	b.WriteString(`<div class="chapter-content">`)
	b.WriteString("\n")
	b.WriteString(html.EscapeString(body))
	b.WriteString("\n</div>\n")
	return b.String()
}
