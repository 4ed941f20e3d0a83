package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kalisz/bookdl"
)

// Ensure Detector implements bookdl.ChallengeDetector at compile time.
var _ bookdl.ChallengeDetector = (*Detector)(nil)

// Detector classifies markup as an anti-bot challenge interstitial by
// scanning title and body text for known challenge phrases.
type Detector struct {
	phrases []string
}

// NewDetector creates a Detector. With no arguments it uses
// bookdl.DefaultChallengePhrases; passing phrases replaces the set.
func NewDetector(phrases ...string) *Detector {
	if len(phrases) == 0 {
		phrases = bookdl.DefaultChallengePhrases()
	}
	lowered := make([]string, len(phrases))
	for i, p := range phrases {
		lowered[i] = strings.ToLower(p)
	}
	return &Detector{phrases: lowered}
}

// Blocked reports whether the markup is a challenge page. The match is a
// case-insensitive substring scan over the document's text content, which
// includes the title. Input that is not markup is never a challenge.
func (d *Detector) Blocked(markup string) bool {
	if !bookdl.IsMarkup(markup) {
		return false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return false
	}

	text := strings.ToLower(doc.Text())
	for _, phrase := range d.phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
