package main_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/kalisz/bookdl"
	main "github.com/kalisz/bookdl/cmd/bookdl"
	"github.com/kalisz/bookdl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourcesCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists stored sources in a table", func(t *testing.T) {
		t.Parallel()

		parsed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
		metadata := &mock.MetadataStore{
			ListFn: func(context.Context) ([]*bookdl.Source, error) {
				return []*bookdl.Source{
					{
						ID:       "abc123",
						ListURL:  "https://example.com/novel/",
						ParsedAt: parsed,
						Chapters: []bookdl.Chapter{{Ordinal: 1}, {Ordinal: 2}},
					},
					{
						ID:      "def456",
						ListURL: "https://other.example.org/book/",
					},
				}, nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   stdout,
			Stderr:   &bytes.Buffer{},
			Metadata: metadata,
		}

		cmd := &main.SourcesCmd{}
		err := cmd.Run(deps)

		require.NoError(t, err)
		output := stdout.String()
		assert.Contains(t, output, "abc123")
		assert.Contains(t, output, "https://example.com/novel/")
		assert.Contains(t, output, "2026-03-14 09:30")
		assert.Contains(t, output, "def456")
		assert.Contains(t, output, "https://other.example.org/book/")
	})

	t.Run("prints a hint when nothing is stored", func(t *testing.T) {
		t.Parallel()

		metadata := &mock.MetadataStore{
			ListFn: func(context.Context) ([]*bookdl.Source, error) { return nil, nil },
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   stdout,
			Stderr:   &bytes.Buffer{},
			Metadata: metadata,
		}

		cmd := &main.SourcesCmd{}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No sources found. Use 'bookdl parse' to create one.")
	})

	t.Run("reports store failures", func(t *testing.T) {
		t.Parallel()

		metadata := &mock.MetadataStore{
			ListFn: func(context.Context) ([]*bookdl.Source, error) {
				return nil, bookdl.Errorf(bookdl.EINTERNAL, "metadata directory unreadable")
			},
		}

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   &bytes.Buffer{},
			Stderr:   stderr,
			Metadata: metadata,
		}

		cmd := &main.SourcesCmd{}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "metadata directory unreadable")
	})
}
