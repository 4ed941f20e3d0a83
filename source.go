package bookdl

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Source describes one chapter-list URL: the selectors used to scrape it,
// its post-processing settings, and the chapter list discovered from it.
// A Source is created on first successful discovery and fully overwritten,
// never merged, on re-discovery.
type Source struct {
	// ID is a stable hash of ListURL. Re-discovering the same URL always
	// yields the same ID, which is what makes runs resumable.
	ID string `json:"id"`

	ListURL  string    `json:"listUrl"`
	ParsedAt time.Time `json:"parsedAt"`

	// ChapterSelector locates chapter links on a list page.
	// ContentSelector locates the content nodes on a chapter page.
	ChapterSelector string `json:"chapterSelector"`
	ContentSelector string `json:"contentSelector"`

	// Pagination selectors resolve "next page" links. Either may be empty,
	// in which case the corresponding traversal stops after one page.
	ListPaginationSelector    string `json:"listPaginationSelector,omitempty"`
	ChapterPaginationSelector string `json:"chapterPaginationSelector,omitempty"`

	// ContentFilter is an optional regular expression applied to chapter
	// content before replacements; see FilterContent.
	ContentFilter string `json:"contentFilter,omitempty"`

	// Replacements are literal pairs applied in order after filtering.
	Replacements []Replacement `json:"replacements,omitempty"`

	Chapters []Chapter `json:"chapters"`
}

// Replacement is a literal (old, new) text replacement pair.
type Replacement struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Validate returns an error if the source is missing required fields.
func (s *Source) Validate() error {
	if s.ListURL == "" {
		return Errorf(EINVALID, "source list URL required")
	}
	if s.ChapterSelector == "" {
		return Errorf(EINVALID, "chapter selector required")
	}
	if s.ContentSelector == "" {
		return Errorf(EINVALID, "content selector required")
	}
	return nil
}

// SourceID derives the stable identifier for a chapter-list URL.
// The hash only needs to be deterministic and collision-resistant for
// practical chapter-list counts, not adversarial input.
func SourceID(listURL string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(listURL))
}

// MetadataStore persists and retrieves Sources keyed by their ID.
type MetadataStore interface {
	// Save persists the source, deriving ID from ListURL when unset, and
	// overwrites any prior record with the same ID.
	Save(ctx context.Context, source *Source) error

	// Load retrieves a source by ID.
	// Returns ENOTFOUND if the record is absent or malformed; a malformed
	// record is indistinguishable from a missing one by design.
	Load(ctx context.Context, id string) (*Source, error)

	// FindBest returns the most recently written source, used as the
	// default when the caller does not pin one. Ties are broken
	// arbitrarily. Returns ENOTFOUND when the store is empty.
	FindBest(ctx context.Context) (*Source, error)

	// List returns all readable sources, newest first.
	// Malformed records are skipped.
	List(ctx context.Context) ([]*Source, error)
}
