package book

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kalisz/bookdl"
)

// ReplaceOptions controls a single Replacer run.
type ReplaceOptions struct {
	// Replacements are literal pairs, applied in order to each file.
	Replacements []bookdl.Replacement

	// RegexReplacements are pattern/replacement pairs applied after the
	// literal ones. Replacement strings support $1-style group references.
	RegexReplacements []bookdl.Replacement

	// CaseSensitive applies to the literal pairs only.
	CaseSensitive bool

	// Backup writes <file>.bak beside each file before its first
	// modification. An existing backup is never overwritten, so the
	// backup always holds the oldest known content.
	Backup bool

	// DryRun reports what would change without writing anything.
	DryRun bool
}

// ReplaceResult summarizes a Replacer run.
type ReplaceResult struct {
	Files        int // chapter files examined
	Changed      int // files whose content changed (or would, under DryRun)
	Replacements int // total occurrences rewritten across changed files
}

// Replacer rewrites the stored chapter files of a source in bulk.
// Replacements apply to the whole stored document, entity escaping
// included, so patterns see the text exactly as it sits on disk.
type Replacer struct {
	Chapters bookdl.ChapterStore

	Logger *slog.Logger
}

// Run applies the replacements to every stored chapter file of the
// source. Unreadable files are logged and skipped. An invalid regular
// expression aborts the run with EINVALID before any file is modified,
// since each file's replacements are computed in full before its write.
func (r *Replacer) Run(ctx context.Context, sourceID string, opts ReplaceOptions) (ReplaceResult, error) {
	var result ReplaceResult

	files, err := r.Chapters.List(sourceID)
	if err != nil {
		return result, err
	}
	if len(files) == 0 {
		return result, bookdl.Errorf(bookdl.ENOTFOUND, "no downloaded chapters for source %q", sourceID)
	}

	dir := r.Chapters.Dir(sourceID)
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			r.logger().Warn("skipping unreadable chapter file", "file", name, "error", err)
			continue
		}
		original := string(data)

		content := original
		count := 0
		for _, p := range opts.Replacements {
			var n int
			content, n = bookdl.ReplaceLiteral(content, p.Old, p.New, opts.CaseSensitive)
			count += n
		}
		for _, p := range opts.RegexReplacements {
			next, n, err := bookdl.ReplaceRegex(content, p.Old, p.New)
			if err != nil {
				return result, err
			}
			content = next
			count += n
		}

		result.Files++
		if content == original {
			continue
		}

		if opts.DryRun {
			r.logger().Info("would modify chapter file", "file", name, "replacements", count)
			result.Changed++
			result.Replacements += count
			continue
		}

		if opts.Backup {
			if err := backup(path, data); err != nil {
				r.logger().Warn("backup failed, file left unmodified", "file", name, "error", err)
				continue
			}
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			r.logger().Warn("failed to write chapter file", "file", name, "error", err)
			continue
		}

		result.Changed++
		result.Replacements += count
		r.logger().Debug("modified chapter file", "file", name, "replacements", count)
	}

	return result, nil
}

// backup preserves the pre-replacement content beside the file. It never
// overwrites an existing backup.
func backup(path string, data []byte) error {
	bak := path + ".bak"
	if _, err := os.Stat(bak); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(bak, data, 0644)
}

func (r *Replacer) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
