// Package scrape provides web-novel scraping orchestration. It coordinates
// chapter-list discovery, anti-bot challenge clearance, and bounded-
// concurrency chapter downloads against the root storage interfaces.
package scrape

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/kalisz/bookdl"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of chapters downloaded in parallel when
// none is configured.
const DefaultConcurrency = 3

// Downloader coordinates the download of every chapter of a source.
type Downloader struct {
	Walker      *Walker
	Querier     bookdl.Querier
	Chapters    bookdl.ChapterStore
	Concurrency int
	Logger      *slog.Logger
}

// Stats holds the outcome of a download run. Every chapter lands in
// exactly one bucket: Total == Downloaded + Skipped + Failed.
type Stats struct {
	Total      int
	Downloaded int
	Skipped    int
	Failed     int
}

// ProgressEvent reports progress during a download run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	Chapter   bookdl.Chapter
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressSkipped
	ProgressDownloaded
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting download progress.
type ProgressFunc func(event ProgressEvent)

// outcome holds the result of one chapter download task.
type outcome struct {
	chapter bookdl.Chapter
	err     error
}

// DownloadAll downloads every chapter of the source that is not already on
// disk. Chapters whose output file exists are skipped without touching the
// network or occupying a download slot. At most Concurrency downloads run
// at a time. Per-chapter failures are counted and reported through the
// progress callback; they never abort the run.
func (d *Downloader) DownloadAll(ctx context.Context, source *bookdl.Source, progress ProgressFunc) (*Stats, error) {
	stats := &Stats{Total: len(source.Chapters)}
	var completed atomic.Int64

	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: stats.Total})
	}

	// The existence check happens before any task is scheduled, so a
	// skipped chapter costs no network activity and no download slot.
	var pending []bookdl.Chapter
	for _, chapter := range source.Chapters {
		if d.Chapters.Exists(source.ID, chapter.Title) {
			stats.Skipped++
			completed.Add(1)
			if progress != nil {
				progress(ProgressEvent{
					Type:      ProgressSkipped,
					Completed: int(completed.Load()),
					Total:     stats.Total,
					Chapter:   chapter,
				})
			}
			continue
		}
		pending = append(pending, chapter)
	}

	concurrency := d.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	resultCh := make(chan outcome, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for _, chapter := range pending {
			chapter := chapter
			g.Go(func() error {
				resultCh <- outcome{chapter: chapter, err: d.downloadChapter(gctx, source, chapter)}
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	for result := range resultCh {
		completed.Add(1)
		if result.err != nil {
			stats.Failed++
			d.logger().Warn("chapter failed",
				"title", result.chapter.Title,
				"url", result.chapter.URL,
				"err", result.err,
			)
			if progress != nil {
				progress(ProgressEvent{
					Type:      ProgressFailed,
					Completed: int(completed.Load()),
					Total:     stats.Total,
					Chapter:   result.chapter,
					Error:     result.err,
				})
			}
		} else {
			stats.Downloaded++
			if progress != nil {
				progress(ProgressEvent{
					Type:      ProgressDownloaded,
					Completed: int(completed.Load()),
					Total:     stats.Total,
					Chapter:   result.chapter,
				})
			}
		}
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: stats.Total, Total: stats.Total})
	}
	return stats, nil
}

// downloadChapter fetches every page of one chapter, extracts and
// post-processes its text, and writes the output file. Nothing is written
// unless every page succeeded.
func (d *Downloader) downloadChapter(ctx context.Context, source *bookdl.Source, chapter bookdl.Chapter) error {
	pages, err := d.Walker.DiscoverChapterPages(ctx, chapter.URL, source.ChapterPaginationSelector)
	if err != nil {
		return err
	}

	texts := make([]string, 0, len(pages))
	for _, pageURL := range pages {
		text, err := d.extractPage(ctx, pageURL, source.ContentSelector)
		if err != nil {
			return err
		}
		texts = append(texts, text)
	}

	content := strings.Join(texts, "\n\n")
	content = d.postProcess(source, chapter, content)

	return d.Chapters.Write(source.ID, chapter.Title, content)
}

// extractPage fetches one content page and returns the text of the nodes
// matched by the content selector, joined by newlines.
func (d *Downloader) extractPage(ctx context.Context, pageURL, contentSelector string) (string, error) {
	markup, err := d.Walker.fetchPage(ctx, pageURL)
	if err != nil {
		return "", err
	}

	nodes, err := d.Querier.Query(markup, contentSelector)
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", bookdl.Errorf(bookdl.ENOCONTENT, "content selector matched nothing on %s", pageURL)
	}

	parts := make([]string, len(nodes))
	for i, node := range nodes {
		parts[i] = node.Text
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", bookdl.Errorf(bookdl.ENOCONTENT, "content empty on %s", pageURL)
	}
	return text, nil
}

// postProcess applies the source's content filter and replacement pairs.
// An invalid filter pattern leaves the content unchanged and is logged;
// the chapter still downloads.
func (d *Downloader) postProcess(source *bookdl.Source, chapter bookdl.Chapter, content string) string {
	if source.ContentFilter != "" {
		filtered, err := bookdl.FilterContent(content, source.ContentFilter)
		if err != nil {
			d.logger().Warn("content filter skipped",
				"title", chapter.Title,
				"pattern", source.ContentFilter,
				"err", err,
			)
		} else {
			content = filtered
		}
	}
	return bookdl.ApplyReplacements(content, source.Replacements)
}

func (d *Downloader) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TruncateURL shortens a URL for display, keeping the end which is more
// informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}
