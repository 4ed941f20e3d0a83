package bookdl

import "strings"

// Chapter is a single entry of a discovered chapter list.
// Ordinal is 1-based and defines the canonical reading order; it is stable
// across re-parses of an unchanged list.
type Chapter struct {
	Ordinal int    `json:"ordinal"`
	URL     string `json:"url"`
	Title   string `json:"title"`
}

// SanitizeTitle makes a chapter title safe for use as a file name by
// replacing characters that are invalid on common filesystems with "_".
func SanitizeTitle(title string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, title)
}

// ChapterStore persists downloaded chapter content, one file per chapter,
// in a subdirectory per source. File existence is the sole source of truth
// for "already downloaded": the orchestrator never re-derives this from
// metadata. Files are keyed by sanitized title, so two chapters whose
// titles sanitize identically share one file (documented behavior).
type ChapterStore interface {
	// Exists reports whether the chapter's output file is already present.
	Exists(sourceID, title string) bool

	// Write persists the chapter body wrapped in the standard chapter
	// document. The write is atomic: a partially written file is never
	// observable at the final path.
	Write(sourceID, title, body string) error

	// Read returns the stored chapter document.
	// Returns ENOTFOUND if the chapter has not been downloaded.
	Read(sourceID, title string) (string, error)

	// List returns the file names (not paths) of all stored chapters for
	// the source, sorted lexically. An absent source directory yields an
	// empty list.
	List(sourceID string) ([]string, error)

	// Dir returns the output directory for a source.
	Dir(sourceID string) string
}
