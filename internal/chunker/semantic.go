package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// chunkBySentences splits the text into sentences and greedily packs
// consecutive sentences into chunks up to the maximum size. A single
// sentence larger than the maximum is force-split at fixed width.
func (e *Engine) chunkBySentences(_ context.Context, input Input) ([]string, error) {
	sentences := splitSentences(input.Text)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("no sentences found")
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if piece := strings.TrimSpace(current.String()); piece != "" {
			chunks = append(chunks, piece)
		}
		current.Reset()
		currentLen = 0
	}

	for _, sentence := range sentences {
		sLen := utf8.RuneCountInString(sentence)

		if sLen > e.cfg.Max {
			flush()
			chunks = append(chunks, hardSplit(sentence, e.cfg.Max)...)
			continue
		}

		if currentLen > 0 && currentLen+sLen+1 > e.cfg.Max {
			flush()
		}
		if currentLen > 0 {
			current.WriteString(" ")
			currentLen++
		}
		current.WriteString(sentence)
		currentLen += sLen
	}
	flush()

	chunks = e.mergeSmall(chunks)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("sentence packing produced no chunks")
	}
	return chunks, nil
}

// splitSentences breaks text at sentence-ending punctuation followed by
// whitespace, and at newlines. Delimiters stay attached to their sentence.
func splitSentences(src string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(src)
	for i, r := range runes {
		current.WriteRune(r)
		switch r {
		case '\n':
			flush()
		case '.', '!', '?', '…':
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()

	return sentences
}
