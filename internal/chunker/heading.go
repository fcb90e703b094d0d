package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

var numberedHeadingRe = regexp.MustCompile(`^\d+(\.\d+)*[.)]?\s+\S`)

// isHeadingLine reports whether a line looks like a section heading:
// a markdown header, a short all-caps line, a numbered section title,
// or a short colon-terminated label.
func isHeadingLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	if strings.HasPrefix(trimmed, "#") {
		return true
	}

	if len([]rune(trimmed)) <= 80 {
		if numberedHeadingRe.MatchString(trimmed) {
			return true
		}
		if strings.HasSuffix(trimmed, ":") && !strings.Contains(trimmed, ". ") {
			return true
		}
		if isAllCaps(trimmed) {
			return true
		}
	}

	return false
}

// isAllCaps reports whether a line contains letters and none of them lowercase.
func isAllCaps(s string) bool {
	var letters int
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	// Require a few letters so "2024" or "---" do not count.
	return letters >= 3
}

// headingTitle strips markdown markers and trailing colon from a heading line.
func headingTitle(line string) string {
	t := strings.TrimSpace(line)
	t = strings.TrimLeft(t, "#")
	t = strings.TrimSuffix(strings.TrimSpace(t), ":")
	return strings.TrimSpace(t)
}

// section is one top-level division of a large document.
type section struct {
	title string
	body  string
}

// splitSections divides text at heading lines into top-level sections.
// Content before the first heading becomes an untitled leading section.
// When no headings are found the whole document is a single section.
func splitSections(text string) []section {
	lines := strings.Split(text, "\n")

	var sections []section
	var current section
	var body strings.Builder

	flush := func() {
		current.body = strings.TrimSpace(body.String())
		if current.body != "" || current.title != "" {
			sections = append(sections, current)
		}
		body.Reset()
	}

	for _, line := range lines {
		if isHeadingLine(line) {
			flush()
			current = section{title: headingTitle(line)}
			body.WriteString(line)
			body.WriteString("\n")
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	if len(sections) == 0 {
		return []section{{body: strings.TrimSpace(text)}}
	}
	return sections
}
