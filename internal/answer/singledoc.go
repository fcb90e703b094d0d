package answer

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/llm"
	"docqa/internal/storage"
)

const (
	// Documents up to this many runes fit into the prompt whole; larger ones
	// are windowed as head, middle and tail slices.
	singleDocWholeLimit = 12000
	singleDocWindow     = 4000
)

// composeSingleDocument answers from the project's only document, either
// verbatim or through head/middle/tail windows when the document is too large
// for a single prompt.
func (c *Composer) composeSingleDocument(ctx context.Context, req Request, doc *storage.Document) (string, error) {
	intent := detectIntent(req.Question)

	content := doc.Content
	runes := []rune(content)
	if len(runes) > singleDocWholeLimit {
		content = windowedContent(runes)
	}

	system := groundedSystemPrompt(intent, req.Project.SystemPrompt)

	messages := []llm.Message{
		{Role: "system", Content: system},
	}
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{
		Role: "user",
		Content: fmt.Sprintf("%s\n\n--- Document: %s ---\n%s\n--- End Document ---",
			req.Question, doc.Filename, content),
	})

	text, err := c.model.Complete(ctx, messages, llm.Params{Temperature: 0.7})
	if err != nil {
		return "", fmt.Errorf("single-document completion: %w", err)
	}
	return text, nil
}

// windowedContent slices an oversized document into head, middle and tail
// windows so the prompt still sees its beginning, core and conclusion.
func windowedContent(runes []rune) string {
	head := string(runes[:singleDocWindow])

	midStart := len(runes)/2 - singleDocWindow/2
	middle := string(runes[midStart : midStart+singleDocWindow])

	tail := string(runes[len(runes)-singleDocWindow:])

	var b strings.Builder
	b.WriteString("[beginning]\n")
	b.WriteString(head)
	b.WriteString("\n\n[middle]\n")
	b.WriteString(middle)
	b.WriteString("\n\n[end]\n")
	b.WriteString(tail)
	return b.String()
}
