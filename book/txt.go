package book

import (
	"io"
	"strings"
	"unicode/utf8"
)

// WriteTXT writes the sections as plain text: the book title with an "="
// underline and an optional author line, then each section's title and
// body separated by blank lines.
func WriteTXT(w io.Writer, info Info, sections []Section) error {
	var b strings.Builder
	b.WriteString(info.Title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", utf8.RuneCountInString(info.Title)))
	b.WriteString("\n")
	if info.Author != "" {
		b.WriteString(info.Author)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, s := range sections {
		b.WriteString(s.Title)
		b.WriteString("\n\n")
		b.WriteString(s.Body)
		b.WriteString("\n\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
