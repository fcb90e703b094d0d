package chunker

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"docqa/internal/llm"
)

var offsetRe = regexp.MustCompile(`\d+`)

const boundaryPrompt = "You are a document segmentation assistant. " +
	"Given the document below, propose character offsets where it should be split into coherent chunks of roughly %d characters. " +
	"Reply with the offsets only, as comma-separated integers.\n\nDOCUMENT:\n%s"

// chunkByModel asks a language model to propose character-offset boundaries
// and cuts the text there. It only runs for documents above the large-document
// threshold when a model is configured; any failure to parse usable offsets
// falls through to the next strategy.
func (e *Engine) chunkByModel(ctx context.Context, input Input) ([]string, error) {
	if e.model == nil {
		return nil, nil
	}
	if utf8.RuneCountInString(input.Text) < e.cfg.LargeDocThreshold {
		return nil, nil
	}

	prompt := fmt.Sprintf(boundaryPrompt, e.cfg.Size, input.Text)
	response, err := e.model.Complete(ctx, []llm.Message{
		{Role: "user", Content: prompt},
	}, llm.Params{MaxTokens: 500, Temperature: 0})
	if err != nil {
		return nil, fmt.Errorf("boundary model call failed: %w", err)
	}

	offsets := parseOffsets(response, len(input.Text))
	if len(offsets) == 0 {
		return nil, fmt.Errorf("no usable offsets in model response")
	}

	chunks := cutAt(input.Text, offsets)
	chunks = e.mergeSmall(chunks)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("model boundaries produced no chunks")
	}
	return chunks, nil
}

// parseOffsets extracts numeric offsets from the model response, keeping
// those strictly inside the text, sorted and deduplicated.
func parseOffsets(response string, textLen int) []int {
	matches := offsetRe.FindAllString(response, -1)

	seen := make(map[int]struct{}, len(matches))
	var offsets []int
	for _, m := range matches {
		n, err := strconv.Atoi(strings.TrimSpace(m))
		if err != nil || n <= 0 || n >= textLen {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		offsets = append(offsets, n)
	}

	sort.Ints(offsets)
	return offsets
}
