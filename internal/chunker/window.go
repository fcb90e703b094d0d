package chunker

import "strings"

// chunkByWindow slides a fixed-size window across the text, snapping each
// window's end backward to the nearest sentence-ending delimiter when one
// exists in its second half, and advancing by size minus overlap. It always
// terminates and always produces at least one chunk for non-empty input;
// pathological tiny input comes back verbatim.
func (e *Engine) chunkByWindow(src string) []string {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil
	}

	runes := []rune(src)
	size := e.cfg.Size
	step := size - e.cfg.Overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			if snapped := snapToSentenceEnd(runes, start, end); snapped > start {
				end = snapped
			}
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, piece)
		}

		if end >= len(runes) {
			break
		}
		next := start + step
		if end-start < step {
			// The snap shortened the window below the step; advance past the
			// emitted text instead so progress is guaranteed.
			next = end
		}
		start = next
	}

	if len(chunks) == 0 {
		return []string{src}
	}
	return chunks
}

// snapToSentenceEnd searches backward from end for a sentence-ending
// delimiter, but no further than halfway into the window. Returns the index
// just past the delimiter, or end when none is found.
func snapToSentenceEnd(runes []rune, start, end int) int {
	limit := start + (end-start)/2
	for i := end - 1; i > limit; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	return end
}
