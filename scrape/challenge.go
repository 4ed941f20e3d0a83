package scrape

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/kalisz/bookdl"
)

// Waiter rides out anti-bot challenge screens. When a fetch returns a
// challenge interstitial instead of real content, it re-fetches on a fixed
// interval until the challenge clears or the wait budget runs out.
//
// The zero durations fall back to the bookdl.DefaultChallenge* values.
// Safe for concurrent use: each call keeps its own state.
type Waiter struct {
	Detector bookdl.ChallengeDetector

	// MaxWait bounds the total time spent waiting for clearance.
	MaxWait time.Duration
	// PollInterval is the delay between clearance checks.
	PollInterval time.Duration
	// SettleDelay is the extra wait after a challenge clears, giving the
	// real page time to finish rendering before the final fetch.
	SettleDelay time.Duration

	Logger *slog.Logger
}

// AwaitClearance runs fetch and returns its markup once it is not a
// challenge page. Markup that is clear on the first fetch is returned
// immediately. Otherwise the fetch is repeated every PollInterval; the
// first clear result triggers the SettleDelay and one final fetch, whose
// markup is returned. A challenge that outlives MaxWait is ECHALLENGE.
func (w *Waiter) AwaitClearance(ctx context.Context, fetch func(ctx context.Context) (string, error)) (string, error) {
	markup, err := fetch(ctx)
	if err != nil {
		return "", err
	}
	if w.Detector == nil || !w.Detector.Blocked(markup) {
		return markup, nil
	}

	maxWait := w.MaxWait
	if maxWait <= 0 {
		maxWait = bookdl.DefaultChallengeMaxWait
	}
	poll := w.PollInterval
	if poll <= 0 {
		poll = bookdl.DefaultChallengePoll
	}
	settle := w.SettleDelay
	if settle <= 0 {
		settle = bookdl.DefaultChallengeSettle
	}

	begin := time.Now()
	w.logger().Info("challenge detected, waiting for clearance", "max_wait", maxWait)

	deadline := begin.Add(maxWait)
	for {
		if !time.Now().Before(deadline) {
			w.logger().Warn("challenge did not clear", "waited", time.Since(begin))
			return "", bookdl.Errorf(bookdl.ECHALLENGE, "challenge did not clear within %s", maxWait)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(poll):
		}

		markup, err = fetch(ctx)
		if err != nil {
			return "", err
		}
		if !w.Detector.Blocked(markup) {
			break
		}
		w.logger().Debug("challenge still blocking", "waited", time.Since(begin))
	}

	// Cleared after waiting: let the real page settle, then fetch the
	// fully loaded document.
	w.logger().Info("challenge cleared", "waited", time.Since(begin))
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(settle):
	}
	return fetch(ctx)
}

func (w *Waiter) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
