package bookdl

import (
	"regexp"
	"strings"
)

// FilterContent applies a content-filter pattern to downloaded chapter text.
// The pattern is compiled multi-line with dot matching newlines. Matches are
// extracted and joined with newlines; everything else is discarded:
//
//   - no capture groups: the full text of each match
//   - one capture group: the group's text
//   - several capture groups: the non-empty groups of each match, joined
//
// Zero matches yield an empty string. An invalid pattern returns EINVALID;
// callers keep the unfiltered content in that case and log a warning rather
// than failing the chapter.
func FilterContent(content, pattern string) (string, error) {
	if pattern == "" {
		return content, nil
	}

	re, err := regexp.Compile("(?ms)" + pattern)
	if err != nil {
		return "", Errorf(EINVALID, "invalid content filter pattern %q: %v", pattern, err)
	}

	var parts []string
	if re.NumSubexp() == 0 {
		for _, m := range re.FindAllString(content, -1) {
			if t := strings.TrimSpace(m); t != "" {
				parts = append(parts, t)
			}
		}
	} else {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			joined := strings.Join(nonEmpty(m[1:]), "")
			if t := strings.TrimSpace(joined); t != "" {
				parts = append(parts, t)
			}
		}
	}

	return strings.Join(parts, "\n"), nil
}

func nonEmpty(groups []string) []string {
	var out []string
	for _, g := range groups {
		if g != "" {
			out = append(out, g)
		}
	}
	return out
}

// ApplyReplacements applies literal replacement pairs in order,
// case-sensitively. This is the download-time post-processing step, run
// after FilterContent.
func ApplyReplacements(content string, replacements []Replacement) string {
	for _, r := range replacements {
		content = strings.ReplaceAll(content, r.Old, r.New)
	}
	return content
}

// ReplaceLiteral replaces all occurrences of old with new and reports how
// many were replaced. When caseSensitive is false the match ignores case
// but the replacement text is used verbatim.
func ReplaceLiteral(content, old, new string, caseSensitive bool) (string, int) {
	if old == "" {
		return content, 0
	}
	if caseSensitive {
		n := strings.Count(content, old)
		if n == 0 {
			return content, 0
		}
		return strings.ReplaceAll(content, old, new), n
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(old))
	matches := re.FindAllStringIndex(content, -1)
	if len(matches) == 0 {
		return content, 0
	}
	return re.ReplaceAllLiteralString(content, new), len(matches)
}

// ReplaceRegex applies a regular-expression replacement and reports how
// many matches were rewritten. The replacement string supports $1-style
// group references. An empty pattern is a no-op rather than an
// everywhere-match.
func ReplaceRegex(content, pattern, replacement string) (string, int, error) {
	if pattern == "" {
		return content, 0, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return content, 0, Errorf(EINVALID, "invalid replacement pattern %q: %v", pattern, err)
	}
	n := len(re.FindAllStringIndex(content, -1))
	if n == 0 {
		return content, 0, nil
	}
	return re.ReplaceAllString(content, replacement), n, nil
}
