package chunker

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Separator ladder for recursive splitting, coarsest structure first.
var recursiveSeparators = []string{
	"\n\n\n",
	"\n\n",
	"\n---\n",
	"\n# ",
	"\n",
	". ",
}

var (
	crlfRe      = regexp.MustCompile(`\r\n?`)
	manyBlankRe = regexp.MustCompile(`\n{4,}`)
)

// chunkRecursive normalizes the text toward a markdown-like structure and
// recursively splits on the separator ladder, only descending to finer
// separators for segments still above the maximum size.
func (e *Engine) chunkRecursive(_ context.Context, input Input) ([]string, error) {
	normalized := normalizeStructure(input.Text)
	pieces := e.splitRecursive(normalized, 0)
	chunks := e.mergeSmall(pieces)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("recursive splitting produced no chunks")
	}
	return chunks, nil
}

// normalizeStructure cleans line endings, collapses excessive blank runs and
// promotes detected heading lines to markdown headers so the separator
// ladder has structure to latch onto.
func normalizeStructure(src string) string {
	src = crlfRe.ReplaceAllString(src, "\n")
	src = manyBlankRe.ReplaceAllString(src, "\n\n\n")

	lines := strings.Split(src, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if isHeadingLine(trimmed) {
			lines[i] = "# " + headingTitle(trimmed)
		}
	}
	return strings.Join(lines, "\n")
}

// splitRecursive splits s at separator level; segments still above the max
// size descend to the next separator. When the ladder is exhausted the
// segment is hard-cut at the maximum width.
func (e *Engine) splitRecursive(s string, level int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if utf8.RuneCountInString(s) <= e.cfg.Max {
		return []string{s}
	}
	if level >= len(recursiveSeparators) {
		return hardSplit(s, e.cfg.Max)
	}

	sep := recursiveSeparators[level]
	parts := strings.Split(s, sep)
	if len(parts) == 1 {
		return e.splitRecursive(s, level+1)
	}

	var result []string
	for i, part := range parts {
		// The heading-marker separator consumes the "# " prefix; restore it
		// so the heading text stays with its section.
		if sep == "\n# " && i > 0 {
			part = "# " + part
		}
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) <= e.cfg.Max {
			result = append(result, part)
			continue
		}
		result = append(result, e.splitRecursive(part, level+1)...)
	}
	return result
}

// hardSplit cuts text into fixed-width pieces of at most width runes.
func hardSplit(s string, width int) []string {
	runes := []rune(s)
	var result []string
	for start := 0; start < len(runes); start += width {
		end := start + width
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			result = append(result, piece)
		}
	}
	return result
}
