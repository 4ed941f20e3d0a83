package mock

import "github.com/kalisz/bookdl"

var _ bookdl.ChallengeDetector = (*ChallengeDetector)(nil)

// ChallengeDetector is a mock implementation of bookdl.ChallengeDetector.
type ChallengeDetector struct {
	BlockedFn func(markup string) bool
}

func (d *ChallengeDetector) Blocked(markup string) bool {
	return d.BlockedFn(markup)
}
