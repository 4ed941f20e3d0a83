package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kalisz/bookdl"
	main "github.com/kalisz/bookdl/cmd/bookdl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTask writes a task file into a temp directory and returns its path.
func writeTask(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "task.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateCmd_Run(t *testing.T) {
	t.Parallel()

	newDeps := func() (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		return &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: stderr,
		}, stdout, stderr
	}

	t.Run("accepts a minimal task file and reports its defaults", func(t *testing.T) {
		t.Parallel()

		path := writeTask(t, `{
			"version": "1.0",
			"task_name": "Demo",
			"novel": {
				"menu_url": "https://example.com/novel/",
				"title": "Demo Novel"
			},
			"parsing": {
				"chapter_selector": "#list a",
				"content_selector": "#content"
			}
		}`)

		deps, stdout, _ := newDeps()
		cmd := &main.ValidateCmd{Config: path}
		err := cmd.Run(deps)

		require.NoError(t, err)
		output := stdout.String()
		assert.Contains(t, output, `Task "Demo" is valid`)
		assert.Contains(t, output, "URL:         https://example.com/novel/")
		assert.Contains(t, output, "Concurrency: 3")
		assert.Contains(t, output, "Format:      txt")
	})

	t.Run("rejects an unknown version", func(t *testing.T) {
		t.Parallel()

		path := writeTask(t, `{
			"version": "2.0",
			"task_name": "Demo",
			"novel": {
				"menu_url": "https://example.com/novel/",
				"title": "Demo Novel"
			},
			"parsing": {
				"chapter_selector": "#list a",
				"content_selector": "#content"
			}
		}`)

		deps, _, stderr := newDeps()
		cmd := &main.ValidateCmd{Config: path}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, bookdl.EINVALID, bookdl.ErrorCode(err))
		assert.Contains(t, stderr.String(), "version must be")
	})

	t.Run("rejects a missing required selector", func(t *testing.T) {
		t.Parallel()

		path := writeTask(t, `{
			"version": "1.0",
			"task_name": "Demo",
			"novel": {
				"menu_url": "https://example.com/novel/",
				"title": "Demo Novel"
			},
			"parsing": {
				"chapter_selector": "#list a"
			}
		}`)

		deps, _, stderr := newDeps()
		cmd := &main.ValidateCmd{Config: path}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "parsing.content_selector required")
	})

	t.Run("reports a missing file", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps()
		cmd := &main.ValidateCmd{Config: filepath.Join(t.TempDir(), "missing.json")}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, bookdl.ENOTFOUND, bookdl.ErrorCode(err))
		assert.Contains(t, stderr.String(), "not found")
	})
}
