// Package book assembles downloaded chapters into a single publishable
// file and provides bulk text-replacement tooling over the stored chapter
// set. Chapter order follows the source metadata ordinals; files on disk
// that the metadata does not know about are appended at the end.
package book

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kalisz/bookdl"
)

// Output formats understood by Merge.
const (
	FormatTXT  = "txt"
	FormatEPUB = "epub"
)

// Info is the book-level metadata stamped into assembled files.
type Info struct {
	Title    string
	Author   string
	Language string
}

// Section is one chapter of an assembled book.
type Section struct {
	Title string
	Body  string
}

// MergeOptions controls a single Merge run.
type MergeOptions struct {
	// Title and Author name the assembled book. Title is required.
	Title  string
	Author string

	// Format selects the output format, FormatTXT or FormatEPUB.
	Format string

	// Output is the destination path. When empty, the sanitized book
	// title in the current directory is used. The file extension is
	// normalized to match Format either way.
	Output string

	// Language is recorded in EPUB metadata. Defaults to zh-CN.
	Language string

	// Reverse assembles chapters in descending ordinal order.
	Reverse bool
}

// Merger assembles the stored chapters of a source into a single file.
type Merger struct {
	Chapters bookdl.ChapterStore
	Querier  bookdl.Querier

	Logger *slog.Logger
}

// Merge reads every stored chapter of the source, orders them by metadata
// ordinal, and writes the assembled book. Chapter files the metadata does
// not reference are appended after the ordered ones; unreadable files are
// logged and skipped. It returns the path of the file written.
func (m *Merger) Merge(ctx context.Context, source *bookdl.Source, opts MergeOptions) (string, error) {
	if opts.Title == "" {
		return "", bookdl.Errorf(bookdl.EINVALID, "book title required")
	}
	if opts.Format != FormatTXT && opts.Format != FormatEPUB {
		return "", bookdl.Errorf(bookdl.EINVALID, "unsupported merge format %q", opts.Format)
	}

	files, err := m.Chapters.List(source.ID)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", bookdl.Errorf(bookdl.ENOTFOUND, "no downloaded chapters for source %q", source.ID)
	}

	info := Info{Title: opts.Title, Author: opts.Author, Language: opts.Language}

	var sections []Section
	for _, name := range m.orderFiles(source, files, opts.Reverse) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		section, err := m.section(source.ID, name)
		if err != nil {
			m.logger().Warn("skipping unreadable chapter file", "file", name, "error", err)
			continue
		}
		sections = append(sections, section)
	}

	out := outputPath(opts)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", err
	}
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}

	switch opts.Format {
	case FormatTXT:
		err = WriteTXT(f, info, sections)
	case FormatEPUB:
		err = WriteEPUB(f, info, sections)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(out)
		return "", err
	}

	m.logger().Info("book assembled",
		"output", out,
		"format", opts.Format,
		"chapters", len(sections))
	return out, nil
}

// orderFiles arranges the stored file names in metadata ordinal order.
// Chapters whose files are missing are skipped; files no metadata chapter
// maps to are appended last in list order, regardless of Reverse.
func (m *Merger) orderFiles(source *bookdl.Source, files []string, reverse bool) []string {
	present := make(map[string]bool, len(files))
	for _, name := range files {
		present[name] = true
	}

	chapters := append([]bookdl.Chapter(nil), source.Chapters...)
	sort.Slice(chapters, func(i, j int) bool {
		if reverse {
			return chapters[i].Ordinal > chapters[j].Ordinal
		}
		return chapters[i].Ordinal < chapters[j].Ordinal
	})

	used := make(map[string]bool, len(files))
	ordered := make([]string, 0, len(files))
	for _, chapter := range chapters {
		name := bookdl.SanitizeTitle(chapter.Title) + ".html"
		if present[name] && !used[name] {
			used[name] = true
			ordered = append(ordered, name)
		}
	}
	for _, name := range files {
		if !used[name] {
			m.logger().Warn("chapter file not in metadata, appending last", "file", name)
			ordered = append(ordered, name)
		}
	}
	return ordered
}

// section reads one stored chapter document and extracts its title and
// body text. The stored shape is an h1 title over a chapter-content
// division; hand-placed files missing either fall back to the file stem
// and the whole document text.
func (m *Merger) section(sourceID, name string) (Section, error) {
	stem := strings.TrimSuffix(name, ".html")
	doc, err := m.Chapters.Read(sourceID, stem)
	if err != nil {
		return Section{}, err
	}

	section := Section{Title: stem}
	if nodes, err := m.Querier.Query(doc, "h1"); err == nil && len(nodes) > 0 {
		section.Title = nodes[0].Text
	}
	if nodes, err := m.Querier.Query(doc, "div.chapter-content"); err == nil && len(nodes) > 0 {
		section.Body = nodes[0].Text
	} else if nodes, err := m.Querier.Query(doc, "body"); err == nil && len(nodes) > 0 {
		section.Body = nodes[0].Text
	}
	return section, nil
}

func outputPath(opts MergeOptions) string {
	out := opts.Output
	if out == "" {
		out = bookdl.SanitizeTitle(opts.Title)
	}
	if ext := "." + opts.Format; filepath.Ext(out) != ext {
		out = strings.TrimSuffix(out, filepath.Ext(out)) + ext
	}
	return out
}

func (m *Merger) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
