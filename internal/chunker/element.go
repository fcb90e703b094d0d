package chunker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// chunkByElements groups content under detected heading-like elements,
// one chunk per heading. Markdown is parsed with goldmark so only real
// headings count; other formats use line-pattern detection. The result is
// accepted only when the average chunk size lands within the size band,
// otherwise the next strategy gets a chance.
func (e *Engine) chunkByElements(_ context.Context, input Input) ([]string, error) {
	var boundaries []int
	if input.FileType == "markdown" {
		boundaries = markdownHeadingOffsets(input.Text)
	} else {
		boundaries = patternHeadingOffsets(input.Text)
	}
	if len(boundaries) == 0 {
		return nil, fmt.Errorf("no heading elements detected")
	}

	chunks := cutAt(input.Text, boundaries)
	chunks = e.mergeSmall(chunks)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no content under headings")
	}

	var total int
	for _, c := range chunks {
		total += utf8.RuneCountInString(c)
	}
	avg := total / len(chunks)
	if avg < e.cfg.Min || avg > e.cfg.Max {
		return nil, fmt.Errorf("average chunk size %d outside [%d, %d]", avg, e.cfg.Min, e.cfg.Max)
	}

	return chunks, nil
}

var mdParser = goldmark.New()

// markdownHeadingOffsets returns byte offsets of heading lines in markdown text.
func markdownHeadingOffsets(src string) []int {
	content := []byte(src)
	doc := mdParser.Parser().Parse(text.NewReader(content))

	var offsets []int
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := heading.Lines()
		if lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		start := lines.At(0).Start
		// Walk back to the start of the line so the "#" markers are included.
		for start > 0 && content[start-1] != '\n' {
			start--
		}
		offsets = append(offsets, start)
		return ast.WalkSkipChildren, nil
	})

	sort.Ints(offsets)
	return offsets
}

// patternHeadingOffsets returns byte offsets of heading-like lines in plain text.
func patternHeadingOffsets(src string) []int {
	var offsets []int
	offset := 0
	for _, line := range strings.SplitAfter(src, "\n") {
		if isHeadingLine(line) {
			offsets = append(offsets, offset)
		}
		offset += len(line)
	}
	return offsets
}

// cutAt slices text at the given sorted byte offsets, keeping leading
// content before the first boundary as its own chunk. Offsets landing
// mid-rune are nudged forward to the next rune boundary.
func cutAt(src string, boundaries []int) []string {
	var chunks []string
	prev := 0
	for _, b := range boundaries {
		for b < len(src) && !utf8.RuneStart(src[b]) {
			b++
		}
		if b <= prev {
			continue
		}
		if piece := strings.TrimSpace(src[prev:b]); piece != "" {
			chunks = append(chunks, piece)
		}
		prev = b
	}
	if piece := strings.TrimSpace(src[prev:]); piece != "" {
		chunks = append(chunks, piece)
	}
	return chunks
}
