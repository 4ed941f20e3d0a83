package scrape_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kalisz/bookdl"
	"github.com/kalisz/bookdl/mock"
	"github.com/kalisz/bookdl/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// link builds a querier node representing an <a> element.
func link(href, text string) bookdl.Node {
	return bookdl.Node{Attrs: map[string]string{"href": href}, Text: text}
}

func TestWalker_DiscoverChapters(t *testing.T) {
	t.Parallel()

	t.Run("collects chapters from a single page", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int32
		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					fetches.Add(1)
					return "<html>list</html>", nil
				},
			},
			Querier: &mock.Querier{
				QueryFn: func(markup, selector string) ([]bookdl.Node, error) {
					return []bookdl.Node{
						link("/book/1", "Chapter 1"),
						link("/book/2", "Chapter 2"),
					}, nil
				},
			},
		}

		chapters, err := w.DiscoverChapters(context.Background(), "https://example.com/book", "ul a", "")

		require.NoError(t, err)
		require.Len(t, chapters, 2)
		assert.Equal(t, bookdl.Chapter{Ordinal: 1, URL: "https://example.com/book/1", Title: "Chapter 1"}, chapters[0])
		assert.Equal(t, bookdl.Chapter{Ordinal: 2, URL: "https://example.com/book/2", Title: "Chapter 2"}, chapters[1])
		assert.Equal(t, int32(1), fetches.Load(), "no pagination selector means one page")
	})

	t.Run("follows next links and stops at the cycle back to page one", func(t *testing.T) {
		t.Parallel()

		// page1 lists A, B and links to page2; page2 lists C, D and
		// links back to page1.
		pages := map[string]struct {
			entries []bookdl.Node
			next    string
		}{
			"https://example.com/list":  {[]bookdl.Node{link("/a", "A"), link("/b", "B")}, "/list2"},
			"https://example.com/list2": {[]bookdl.Node{link("/c", "C"), link("/d", "D")}, "/list"},
		}

		var fetched []string
		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					fetched = append(fetched, url)
					return "<html>" + url + "</html>", nil
				},
			},
			Querier: &mock.Querier{
				QueryFn: func(markup, selector string) ([]bookdl.Node, error) {
					url := strings.TrimSuffix(strings.TrimPrefix(markup, "<html>"), "</html>")
					page := pages[url]
					if selector == "a.next" {
						return []bookdl.Node{link(page.next, "next")}, nil
					}
					return page.entries, nil
				},
			},
		}

		chapters, err := w.DiscoverChapters(context.Background(), "https://example.com/list", "ul a", "a.next")

		require.NoError(t, err)
		require.Len(t, chapters, 4)
		var titles []string
		for _, c := range chapters {
			titles = append(titles, c.Title)
			assert.Equal(t, len(titles), c.Ordinal)
		}
		assert.Equal(t, []string{"A", "B", "C", "D"}, titles)
		assert.Equal(t, []string{"https://example.com/list", "https://example.com/list2"}, fetched,
			"each page is fetched once, the cycle back to page one stops the walk")

		// A second discovery yields the identical sequence.
		fetched = nil
		again, err := w.DiscoverChapters(context.Background(), "https://example.com/list", "ul a", "a.next")
		require.NoError(t, err)
		assert.Equal(t, chapters, again)
	})

	t.Run("resolves relative hrefs against the page they appear on", func(t *testing.T) {
		t.Parallel()

		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html>" + url + "</html>", nil
				},
			},
			Querier: &mock.Querier{
				QueryFn: func(markup, selector string) ([]bookdl.Node, error) {
					if strings.Contains(markup, "page2") {
						if selector == "a.next" {
							return nil, nil
						}
						return []bookdl.Node{link("ch2", "Two")}, nil
					}
					if selector == "a.next" {
						return []bookdl.Node{link("page2/", "next")}, nil
					}
					return []bookdl.Node{link("ch1", "One")}, nil
				},
			},
		}

		chapters, err := w.DiscoverChapters(context.Background(), "https://example.com/book/", "a", "a.next")

		require.NoError(t, err)
		require.Len(t, chapters, 2)
		assert.Equal(t, "https://example.com/book/ch1", chapters[0].URL)
		assert.Equal(t, "https://example.com/book/page2/ch2", chapters[1].URL)
	})

	t.Run("fails when the first page cannot be fetched", func(t *testing.T) {
		t.Parallel()

		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "", errors.New("connection refused")
				},
			},
			Querier: &mock.Querier{},
		}

		_, err := w.DiscoverChapters(context.Background(), "https://example.com/list", "a", "")

		require.Error(t, err)
		assert.Equal(t, bookdl.EFETCH, bookdl.ErrorCode(err))
	})

	t.Run("fails when the first page is not markup", func(t *testing.T) {
		t.Parallel()

		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "4A81C3E09F52B7D14A81C3E09F52B7D1", nil
				},
			},
			Querier: &mock.Querier{},
		}

		_, err := w.DiscoverChapters(context.Background(), "https://example.com/list", "a", "")

		require.Error(t, err)
		assert.Equal(t, bookdl.EFETCH, bookdl.ErrorCode(err))
	})

	t.Run("returns collected chapters when a later page fails", func(t *testing.T) {
		t.Parallel()

		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					if strings.Contains(url, "list2") {
						return "", errors.New("connection reset")
					}
					return "<html>page1</html>", nil
				},
			},
			Querier: &mock.Querier{
				QueryFn: func(markup, selector string) ([]bookdl.Node, error) {
					if selector == "a.next" {
						return []bookdl.Node{link("/list2", "next")}, nil
					}
					return []bookdl.Node{link("/a", "A")}, nil
				},
			},
		}

		chapters, err := w.DiscoverChapters(context.Background(), "https://example.com/list", "a", "a.next")

		require.NoError(t, err)
		require.Len(t, chapters, 1)
		assert.Equal(t, "A", chapters[0].Title)
	})

	t.Run("selector matching nothing is not an error", func(t *testing.T) {
		t.Parallel()

		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html></html>", nil
				},
			},
			Querier: &mock.Querier{
				QueryFn: func(markup, selector string) ([]bookdl.Node, error) {
					return nil, nil
				},
			},
		}

		chapters, err := w.DiscoverChapters(context.Background(), "https://example.com/list", "a.none", "")

		require.NoError(t, err)
		assert.Empty(t, chapters)
	})

	t.Run("invalid selector fails discovery", func(t *testing.T) {
		t.Parallel()

		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html></html>", nil
				},
			},
			Querier: &mock.Querier{
				QueryFn: func(markup, selector string) ([]bookdl.Node, error) {
					return nil, bookdl.Errorf(bookdl.EINVALID, "invalid selector %q", selector)
				},
			},
		}

		_, err := w.DiscoverChapters(context.Background(), "https://example.com/list", "a[[", "")

		assert.Equal(t, bookdl.EINVALID, bookdl.ErrorCode(err))
	})

	t.Run("skips entries missing href or title", func(t *testing.T) {
		t.Parallel()

		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html></html>", nil
				},
			},
			Querier: &mock.Querier{
				QueryFn: func(markup, selector string) ([]bookdl.Node, error) {
					return []bookdl.Node{
						link("", "Untargeted"),
						{Attrs: map[string]string{"href": "/ch1"}, Text: ""},
						link("/ch2", "Kept"),
					}, nil
				},
			},
		}

		chapters, err := w.DiscoverChapters(context.Background(), "https://example.com/list", "a", "")

		require.NoError(t, err)
		require.Len(t, chapters, 1)
		assert.Equal(t, "Kept", chapters[0].Title)
		assert.Equal(t, 1, chapters[0].Ordinal)
	})

	t.Run("waits on the domain limiter before each fetch", func(t *testing.T) {
		t.Parallel()

		var domains []string
		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html></html>", nil
				},
			},
			Querier: &mock.Querier{
				QueryFn: func(markup, selector string) ([]bookdl.Node, error) {
					return nil, nil
				},
			},
			Limiter: &mock.DomainLimiter{
				WaitFn: func(_ context.Context, domain string) error {
					domains = append(domains, domain)
					return nil
				},
			},
		}

		_, err := w.DiscoverChapters(context.Background(), "https://example.com/list", "a", "")

		require.NoError(t, err)
		assert.Equal(t, []string{"example.com"}, domains)
	})

	t.Run("rides out a challenge screen through the waiter", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int32
		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					if fetches.Add(1) == 1 {
						return "<html><title>Just a moment</title></html>", nil
					}
					return "<html>real page</html>", nil
				},
			},
			Querier: &mock.Querier{
				QueryFn: func(markup, selector string) ([]bookdl.Node, error) {
					return []bookdl.Node{link("/ch1", "One")}, nil
				},
			},
			Waiter: &scrape.Waiter{
				Detector: &mock.ChallengeDetector{
					BlockedFn: func(markup string) bool {
						return strings.Contains(markup, "Just a moment")
					},
				},
				MaxWait:      time.Second,
				PollInterval: time.Millisecond,
				SettleDelay:  time.Millisecond,
			},
		}

		chapters, err := w.DiscoverChapters(context.Background(), "https://example.com/list", "a", "")

		require.NoError(t, err)
		require.Len(t, chapters, 1)
		// initial blocked fetch, clearing poll, post-settle fetch
		assert.Equal(t, int32(3), fetches.Load())
	})
}

func TestWalker_DiscoverChapterPages(t *testing.T) {
	t.Parallel()

	t.Run("chapter is its only page without a pagination selector", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int32
		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					fetches.Add(1)
					return "<html></html>", nil
				},
			},
			Querier: &mock.Querier{},
		}

		pages, err := w.DiscoverChapterPages(context.Background(), "https://example.com/ch1", "")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/ch1"}, pages)
		assert.Equal(t, int32(0), fetches.Load(), "nothing to fetch without a pagination selector")
	})

	t.Run("walks next links with the chapter itself first", func(t *testing.T) {
		t.Parallel()

		next := map[string]string{
			"https://example.com/ch1":   "/ch1_2",
			"https://example.com/ch1_2": "/ch1_3",
			"https://example.com/ch1_3": "/ch1", // back to the start
		}

		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "<html>" + url + "</html>", nil
				},
			},
			Querier: &mock.Querier{
				QueryFn: func(markup, selector string) ([]bookdl.Node, error) {
					url := strings.TrimSuffix(strings.TrimPrefix(markup, "<html>"), "</html>")
					return []bookdl.Node{link(next[url], "next")}, nil
				},
			},
		}

		pages, err := w.DiscoverChapterPages(context.Background(), "https://example.com/ch1", "a.next")

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://example.com/ch1",
			"https://example.com/ch1_2",
			"https://example.com/ch1_3",
		}, pages)
	})

	t.Run("fails when the chapter page itself fails", func(t *testing.T) {
		t.Parallel()

		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					return "", errors.New("connection refused")
				},
			},
			Querier: &mock.Querier{},
		}

		_, err := w.DiscoverChapterPages(context.Background(), "https://example.com/ch1", "a.next")

		require.Error(t, err)
		assert.Equal(t, bookdl.EFETCH, bookdl.ErrorCode(err))
	})

	t.Run("returns pages found when a later page fails", func(t *testing.T) {
		t.Parallel()

		w := &scrape.Walker{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					if strings.HasSuffix(url, "ch1_2") {
						return "", errors.New("connection reset")
					}
					return "<html>" + url + "</html>", nil
				},
			},
			Querier: &mock.Querier{
				QueryFn: func(markup, selector string) ([]bookdl.Node, error) {
					return []bookdl.Node{link("/ch1_2", "next")}, nil
				},
			},
		}

		pages, err := w.DiscoverChapterPages(context.Background(), "https://example.com/ch1", "a.next")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/ch1", "https://example.com/ch1_2"}, pages)
	})
}
