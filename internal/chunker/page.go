package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// chunkByPages splits strictly at page boundaries. Applies only to
// page-oriented formats with per-page text available. Pages below the
// minimum size are merged into the previous chunk so no sub-minimum
// fragments are emitted; pages above the maximum are windowed.
func (e *Engine) chunkByPages(_ context.Context, input Input) ([]string, error) {
	if input.FileType != "pdf" || len(input.Pages) == 0 {
		return nil, nil
	}

	var chunks []string
	for _, page := range input.Pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}

		if utf8.RuneCountInString(page) > e.cfg.Max {
			chunks = append(chunks, e.chunkByWindow(page)...)
			continue
		}

		if len(chunks) > 0 && utf8.RuneCountInString(page) < e.cfg.Min {
			chunks[len(chunks)-1] = chunks[len(chunks)-1] + "\n\n" + page
			continue
		}
		chunks = append(chunks, page)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("no non-empty pages")
	}
	return chunks, nil
}
