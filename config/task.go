// Package config loads and validates the JSON task files consumed by the
// task command. A task file describes one end-to-end run: parse the
// chapter list, download chapters, optionally rewrite them, and merge the
// result into a book.
package config

import (
	"encoding/json"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/kalisz/bookdl"
	"github.com/kalisz/bookdl/book"
	"github.com/kalisz/bookdl/goquery"
	"github.com/kalisz/bookdl/scrape"
)

// Version is the task file format version this build understands.
const Version = "1.0"

// MaxConcurrency caps downloading.concurrency. Novel sites challenge or
// drop connections well before this bound is useful.
const MaxConcurrency = 20

// Task is a declarative end-to-end run.
type Task struct {
	Version     string `json:"version"`
	TaskName    string `json:"task_name"`
	Description string `json:"description,omitempty"`

	Browser     Browser     `json:"browser"`
	Novel       Novel       `json:"novel"`
	Parsing     Parsing     `json:"parsing"`
	Downloading Downloading `json:"downloading"`
	Processing  Processing  `json:"processing"`
	Merging     Merging     `json:"merging"`
}

// Browser configures the headless fetcher.
type Browser struct {
	ChromePath string `json:"chrome_path,omitempty"`
	Headless   bool   `json:"headless"`
	Proxy      string `json:"proxy,omitempty"`
}

// Novel names the work and where its chapter list lives.
type Novel struct {
	MenuURL        string `json:"menu_url"`
	Title          string `json:"title"`
	Author         string `json:"author,omitempty"`
	OutputFilename string `json:"output_filename,omitempty"`
}

// Parsing carries the selector expressions for discovery and download.
type Parsing struct {
	SourceID                  string `json:"source_id,omitempty"`
	ChapterSelector           string `json:"chapter_selector"`
	ContentSelector           string `json:"content_selector"`
	ChapterPaginationSelector string `json:"chapter_pagination_selector,omitempty"`
	ListPaginationSelector    string `json:"list_pagination_selector,omitempty"`
}

// Downloading bounds the download run and its post-processing.
type Downloading struct {
	Concurrency   int                  `json:"concurrency"`
	ContentFilter string               `json:"content_filter,omitempty"`
	Replacements  []bookdl.Replacement `json:"replacements,omitempty"`
}

// Processing configures the bulk replace step run after downloading.
type Processing struct {
	Replacements      []bookdl.Replacement `json:"replacements,omitempty"`
	RegexReplacements []bookdl.Replacement `json:"regex_replacements,omitempty"`
	CaseSensitive     bool                 `json:"case_sensitive"`
	Backup            bool                 `json:"backup"`
	DryRun            bool                 `json:"dry_run,omitempty"`
}

// Merging configures final book assembly.
type Merging struct {
	Format    string `json:"format"`
	Reverse   bool   `json:"reverse"`
	OutputDir string `json:"output_dir,omitempty"`
}

// Load reads and validates a task file. Optional settings absent from the
// file keep their defaults: headless browsing, the standard download
// concurrency, txt output.
func Load(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, bookdl.Errorf(bookdl.ENOTFOUND, "task file %q not found", path)
	} else if err != nil {
		return nil, err
	}

	task := &Task{
		Browser:     Browser{Headless: true},
		Downloading: Downloading{Concurrency: scrape.DefaultConcurrency},
		Merging:     Merging{Format: book.FormatTXT},
	}
	if err := json.Unmarshal(data, task); err != nil {
		return nil, bookdl.Errorf(bookdl.EINVALID, "task file %q: %v", path, err)
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks the task against the format rules and returns the first
// violation as an EINVALID error naming the offending field.
func (t *Task) Validate() error {
	if t.Version != Version {
		return bookdl.Errorf(bookdl.EINVALID, "version must be %q", Version)
	}
	if strings.TrimSpace(t.TaskName) == "" {
		return bookdl.Errorf(bookdl.EINVALID, "task_name required")
	}
	if err := t.Novel.validate(); err != nil {
		return err
	}
	if err := t.Parsing.validate(); err != nil {
		return err
	}
	if err := t.Downloading.validate(); err != nil {
		return err
	}
	if err := t.Processing.validate(); err != nil {
		return err
	}
	return t.Merging.validate()
}

// Source builds the domain source this task describes. The ID is derived
// from the menu URL unless parsing.source_id pins an existing one.
func (t *Task) Source() *bookdl.Source {
	source := &bookdl.Source{
		ID:                        t.Parsing.SourceID,
		ListURL:                   t.Novel.MenuURL,
		ChapterSelector:           t.Parsing.ChapterSelector,
		ContentSelector:           t.Parsing.ContentSelector,
		ListPaginationSelector:    t.Parsing.ListPaginationSelector,
		ChapterPaginationSelector: t.Parsing.ChapterPaginationSelector,
		ContentFilter:             t.Downloading.ContentFilter,
		Replacements:              t.Downloading.Replacements,
	}
	if source.ID == "" {
		source.ID = bookdl.SourceID(t.Novel.MenuURL)
	}
	return source
}

func (n *Novel) validate() error {
	if n.MenuURL == "" {
		return bookdl.Errorf(bookdl.EINVALID, "novel.menu_url required")
	}
	u, err := url.Parse(n.MenuURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return bookdl.Errorf(bookdl.EINVALID, "novel.menu_url must be an absolute http(s) URL")
	}
	if n.Title == "" {
		return bookdl.Errorf(bookdl.EINVALID, "novel.title required")
	}
	return nil
}

var sourceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func (p *Parsing) validate() error {
	if p.SourceID != "" && !sourceIDPattern.MatchString(p.SourceID) {
		return bookdl.Errorf(bookdl.EINVALID, "parsing.source_id may only contain letters, digits, and underscores")
	}
	if p.ChapterSelector == "" {
		return bookdl.Errorf(bookdl.EINVALID, "parsing.chapter_selector required")
	}
	if p.ContentSelector == "" {
		return bookdl.Errorf(bookdl.EINVALID, "parsing.content_selector required")
	}

	selectors := []struct{ field, expr string }{
		{"parsing.chapter_selector", p.ChapterSelector},
		{"parsing.content_selector", p.ContentSelector},
		{"parsing.chapter_pagination_selector", p.ChapterPaginationSelector},
		{"parsing.list_pagination_selector", p.ListPaginationSelector},
	}
	for _, s := range selectors {
		if s.expr == "" {
			continue
		}
		if err := goquery.ValidateSelector(s.expr); err != nil {
			return bookdl.Errorf(bookdl.EINVALID, "%s: invalid selector %q", s.field, s.expr)
		}
	}
	return nil
}

func (d *Downloading) validate() error {
	if d.Concurrency < 1 || d.Concurrency > MaxConcurrency {
		return bookdl.Errorf(bookdl.EINVALID, "downloading.concurrency must be between 1 and %d", MaxConcurrency)
	}
	if d.ContentFilter != "" {
		if _, err := bookdl.FilterContent("", d.ContentFilter); err != nil {
			return bookdl.Errorf(bookdl.EINVALID, "downloading.content_filter: invalid pattern %q", d.ContentFilter)
		}
	}
	return nil
}

func (p *Processing) validate() error {
	for i, r := range p.RegexReplacements {
		if _, _, err := bookdl.ReplaceRegex("", r.Old, r.New); err != nil {
			return bookdl.Errorf(bookdl.EINVALID, "processing.regex_replacements[%d]: invalid pattern %q", i, r.Old)
		}
	}
	return nil
}

func (m *Merging) validate() error {
	if m.Format != book.FormatTXT && m.Format != book.FormatEPUB {
		return bookdl.Errorf(bookdl.EINVALID, "merging.format must be %q or %q", book.FormatTXT, book.FormatEPUB)
	}
	return nil
}
