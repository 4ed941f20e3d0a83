package bookdl

import "time"

// Anti-bot wait defaults. Challenge interstitials usually clear within a
// few seconds once the visitor (or the site's own JavaScript) completes
// verification; two minutes is the give-up budget.
const (
	DefaultChallengeMaxWait = 2 * time.Minute
	DefaultChallengePoll    = 3 * time.Second

	// DefaultChallengeSettle is the extra delay after a challenge clears,
	// allowing the real page to finish its client-side render before the
	// markup is used.
	DefaultChallengeSettle = 5 * time.Second
)

// DefaultChallengePhrases returns the known challenge-interstitial phrases.
// A page whose title or body text contains any of them (case-insensitive
// substring match) is considered blocked. The set is configuration data:
// detection must be reproducible from this list alone.
func DefaultChallengePhrases() []string {
	return []string{
		"请稍候",
		"just a moment",
		"checking your browser",
		"please wait",
		"请完成以下操作，验证您是真人",
		"verify you are human",
		"complete the challenge",
	}
}

// ChallengeDetector classifies fetched markup as a blocking anti-bot
// interstitial or real content.
type ChallengeDetector interface {
	// Blocked reports whether the markup is a challenge page. Non-markup
	// input is never a challenge.
	Blocked(markup string) bool
}
