package goquery_test

import (
	"testing"

	"github.com/kalisz/bookdl/goquery"
	"github.com/stretchr/testify/assert"
)

func TestDetector_Blocked(t *testing.T) {
	t.Parallel()

	d := goquery.NewDetector()

	t.Run("challenge title", func(t *testing.T) {
		t.Parallel()

		markup := `<html><head><title>Just a moment...</title></head><body></body></html>`
		assert.True(t, d.Blocked(markup))
	})

	t.Run("challenge body text", func(t *testing.T) {
		t.Parallel()

		markup := `<html><head><title>site.com</title></head><body><p>Verify you are human by completing the action below.</p></body></html>`
		assert.True(t, d.Blocked(markup))
	})

	t.Run("chinese interstitial", func(t *testing.T) {
		t.Parallel()

		markup := `<html><head><title>请稍候…</title></head><body></body></html>`
		assert.True(t, d.Blocked(markup))
	})

	t.Run("match is case insensitive", func(t *testing.T) {
		t.Parallel()

		markup := `<html><head><title>JUST A MOMENT</title></head><body></body></html>`
		assert.True(t, d.Blocked(markup))
	})

	t.Run("regular page is not blocked", func(t *testing.T) {
		t.Parallel()

		markup := `<html><head><title>Chapter 1 - My Novel</title></head><body><p>Once upon a time.</p></body></html>`
		assert.False(t, d.Blocked(markup))
	})

	t.Run("non-markup input is not blocked", func(t *testing.T) {
		t.Parallel()

		assert.False(t, d.Blocked(""))
		assert.False(t, d.Blocked("   "))
		assert.False(t, d.Blocked(`{"error": "just a moment"}`))
	})

	t.Run("custom phrase set replaces defaults", func(t *testing.T) {
		t.Parallel()

		custom := goquery.NewDetector("access denied")

		assert.True(t, custom.Blocked("<html><body>Access Denied</body></html>"))
		assert.False(t, custom.Blocked("<html><head><title>Just a moment...</title></head></html>"))
	})
}
