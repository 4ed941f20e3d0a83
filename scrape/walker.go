package scrape

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"

	"github.com/kalisz/bookdl"
)

// Walker discovers chapter lists and within-chapter page sequences by
// following "next page" links. Waiter and Limiter are optional; when set,
// every fetch waits out challenge screens and the per-domain rate limit.
type Walker struct {
	Fetcher bookdl.Fetcher
	Querier bookdl.Querier
	Waiter  *Waiter
	Limiter bookdl.DomainLimiter
	Logger  *slog.Logger
}

// DiscoverChapters walks the chapter list starting at listURL and returns
// every chapter entry in document order, ordinals assigned 1..n over the
// final sequence. Without a pagination selector only the first page is
// read. A failure on the first page fails the discovery; a failure on a
// later page stops the walk and returns what was collected.
func (w *Walker) DiscoverChapters(ctx context.Context, listURL, chapterSelector, paginationSelector string) ([]bookdl.Chapter, error) {
	var chapters []bookdl.Chapter
	visited := map[string]bool{}

	current := listURL
	for current != "" {
		visited[current] = true
		first := len(visited) == 1

		markup, err := w.fetchPage(ctx, current)
		if err != nil {
			if first {
				return nil, err
			}
			w.logger().Warn("chapter list page failed, stopping walk", "url", current, "err", err)
			break
		}

		nodes, err := w.Querier.Query(markup, chapterSelector)
		if err != nil {
			if first {
				return nil, err
			}
			w.logger().Warn("chapter list query failed, stopping walk", "url", current, "err", err)
			break
		}

		for _, node := range nodes {
			href := node.Attr("href")
			title := node.Text
			if href == "" || title == "" {
				w.logger().Warn("chapter entry missing href or title", "page", current, "href", href, "title", title)
				continue
			}
			resolved, err := resolveURL(current, href)
			if err != nil {
				w.logger().Warn("chapter entry href does not parse", "page", current, "href", href)
				continue
			}
			chapters = append(chapters, bookdl.Chapter{URL: resolved, Title: title})
		}

		if paginationSelector == "" {
			break
		}
		next, err := w.nextURL(markup, current, paginationSelector)
		if err != nil {
			if first {
				return nil, err
			}
			w.logger().Warn("pagination query failed, stopping walk", "url", current, "err", err)
			break
		}
		if next == "" || visited[next] {
			break
		}
		current = next
	}

	for i := range chapters {
		chapters[i].Ordinal = i + 1
	}
	return chapters, nil
}

// DiscoverChapterPages returns the ordered content page URLs of a single
// chapter, the chapter URL itself always first. Without a pagination
// selector the chapter is its only page and nothing is fetched. A failure
// on the chapter's own page fails the discovery; a failure further in
// stops the walk and returns the pages found so far.
func (w *Walker) DiscoverChapterPages(ctx context.Context, chapterURL, paginationSelector string) ([]string, error) {
	pages := []string{chapterURL}
	if paginationSelector == "" {
		return pages, nil
	}

	visited := map[string]bool{chapterURL: true}
	current := chapterURL
	for {
		markup, err := w.fetchPage(ctx, current)
		if err != nil {
			if current == chapterURL {
				return nil, err
			}
			w.logger().Warn("chapter page failed, stopping walk", "url", current, "err", err)
			break
		}

		next, err := w.nextURL(markup, current, paginationSelector)
		if err != nil {
			if current == chapterURL {
				return nil, err
			}
			w.logger().Warn("chapter pagination query failed, stopping walk", "url", current, "err", err)
			break
		}
		if next == "" || visited[next] {
			break
		}
		visited[next] = true
		pages = append(pages, next)
		current = next
	}
	return pages, nil
}

// fetchPage retrieves one page through the limiter and the challenge
// waiter when configured, and rejects responses that are not markup.
// Safe for concurrent use.
func (w *Walker) fetchPage(ctx context.Context, pageURL string) (string, error) {
	if w.Limiter != nil {
		if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
			if err := w.Limiter.Wait(ctx, u.Host); err != nil {
				return "", err
			}
		}
	}

	fetch := func(ctx context.Context) (string, error) {
		return w.Fetcher.Fetch(ctx, pageURL)
	}

	var markup string
	var err error
	if w.Waiter != nil {
		markup, err = w.Waiter.AwaitClearance(ctx, fetch)
	} else {
		markup, err = fetch(ctx)
	}
	if err != nil {
		return "", fetchError(pageURL, err)
	}
	if !bookdl.IsMarkup(markup) {
		return "", bookdl.Errorf(bookdl.EFETCH, "page %s returned no markup", pageURL)
	}
	return markup, nil
}

// nextURL resolves the "next page" link: the first node matched by the
// pagination selector whose href resolves to something other than the
// current page.
func (w *Walker) nextURL(markup, current, paginationSelector string) (string, error) {
	nodes, err := w.Querier.Query(markup, paginationSelector)
	if err != nil {
		return "", err
	}
	for _, node := range nodes {
		href := node.Attr("href")
		if href == "" {
			continue
		}
		resolved, err := resolveURL(current, href)
		if err != nil || resolved == current {
			continue
		}
		return resolved, nil
	}
	return "", nil
}

func (w *Walker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// resolveURL resolves href against the page it appeared on. Absolute
// hrefs pass through unchanged.
func resolveURL(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	h, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(h).String(), nil
}

// fetchError maps transport failures to EFETCH. Errors that already carry
// an application code (such as ECHALLENGE) and context errors pass
// through untouched.
func fetchError(pageURL string, err error) error {
	var e *bookdl.Error
	if errors.As(err, &e) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return bookdl.Errorf(bookdl.EFETCH, "fetch %s: %v", pageURL, err)
}
