package bookdl_test

import (
	"testing"

	"github.com/kalisz/bookdl"
	"github.com/stretchr/testify/assert"
)

func TestSourceID(t *testing.T) {
	t.Parallel()

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		a := bookdl.SourceID("https://example.com/novel/123")
		b := bookdl.SourceID("https://example.com/novel/123")

		assert.Equal(t, a, b)
		assert.NotEmpty(t, a)
	})

	t.Run("distinct URLs yield distinct ids", func(t *testing.T) {
		t.Parallel()

		a := bookdl.SourceID("https://example.com/novel/123")
		b := bookdl.SourceID("https://example.com/novel/124")

		assert.NotEqual(t, a, b)
	})
}

func TestSource_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *bookdl.Source {
		return &bookdl.Source{
			ListURL:         "https://example.com/novel",
			ChapterSelector: "ul.chapters a",
			ContentSelector: "div.content",
		}
	}

	t.Run("valid source", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, valid().Validate())
	})

	t.Run("missing list URL", func(t *testing.T) {
		t.Parallel()

		s := valid()
		s.ListURL = ""

		err := s.Validate()
		assert.Equal(t, bookdl.EINVALID, bookdl.ErrorCode(err))
	})

	t.Run("missing chapter selector", func(t *testing.T) {
		t.Parallel()

		s := valid()
		s.ChapterSelector = ""

		err := s.Validate()
		assert.Equal(t, bookdl.EINVALID, bookdl.ErrorCode(err))
	})

	t.Run("missing content selector", func(t *testing.T) {
		t.Parallel()

		s := valid()
		s.ContentSelector = ""

		err := s.Validate()
		assert.Equal(t, bookdl.EINVALID, bookdl.ErrorCode(err))
	})
}
