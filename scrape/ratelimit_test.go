package scrape_test

import (
	"context"
	"testing"
	"time"

	"github.com/kalisz/bookdl"
	"github.com/kalisz/bookdl/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainLimiter(t *testing.T) {
	t.Parallel()

	t.Run("implements bookdl.DomainLimiter", func(t *testing.T) {
		t.Parallel()
		var _ bookdl.DomainLimiter = scrape.NewDomainLimiter(1)
	})

	t.Run("first request to a domain is immediate", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(10)

		start := time.Now()
		err := limiter.Wait(context.Background(), "example.com")

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("spaces out requests to the same domain", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(10) // 100ms between requests

		require.NoError(t, limiter.Wait(context.Background(), "example.com"))

		start := time.Now()
		err := limiter.Wait(context.Background(), "example.com")

		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	})

	t.Run("domains are limited independently", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(10)

		require.NoError(t, limiter.Wait(context.Background(), "a.example.com"))

		start := time.Now()
		err := limiter.Wait(context.Background(), "b.example.com")

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("wait honors context cancellation", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(0.1) // 10s between requests

		require.NoError(t, limiter.Wait(context.Background(), "example.com"))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := limiter.Wait(ctx, "example.com")
		assert.Error(t, err)
	})
}
