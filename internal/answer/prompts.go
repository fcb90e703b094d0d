package answer

import (
	"fmt"
	"strings"

	"docqa/internal/retrieval"
	"docqa/internal/storage"
)

const (
	metadataPreviewChars = 500
)

// groundedContext formats retrieved passages the model is allowed to cite.
func groundedContext(passages []retrieval.Result) string {
	var b strings.Builder
	b.WriteString("--- Context from documents ---\n\n")
	for i, p := range passages {
		source := p.Source
		if source == "" {
			source = "unknown"
		}
		b.WriteString(fmt.Sprintf("Fragment %d (source: %s, relevance: %.2f): %s\n\n",
			i+1, source, p.Score, p.Text))
	}
	b.WriteString("--- End Context ---")
	return b.String()
}

// groundedSystemPrompt returns the instruction block for context-grounded
// generation. The "answer only from the context" clause is what keeps answers
// measurable against the source documents, so every intent keeps it.
func groundedSystemPrompt(intent Intent, projectPrompt string) string {
	var b strings.Builder
	if projectPrompt != "" {
		b.WriteString(projectPrompt)
		b.WriteString("\n\n")
	}
	b.WriteString("You are an assistant that answers questions about the user's uploaded documents. " +
		"Answer using only the information from the context fragments provided. " +
		"If the context does not contain enough information, say that the answer was not found in the documents. " +
		"Do not invent facts that are not in the context.")

	switch intent {
	case IntentSummary:
		b.WriteString(" The user is asking for a summary: produce a concise summary of the relevant fragments.")
	case IntentOverview:
		b.WriteString(" The user is asking what the documents are about: give a descriptive overview of their contents and purpose.")
	case IntentAnalysis:
		b.WriteString(" The user is asking for analysis: reason step by step over the fragments, compare and weigh the facts they contain, but still use only those facts.")
	}
	return b.String()
}

// metadataContext describes documents by filename, type and a short content
// preview, for prompts that must not pretend to know full document contents.
func metadataContext(docs []*storage.Document) string {
	var b strings.Builder
	b.WriteString("Known documents:\n")
	for _, d := range docs {
		b.WriteString(fmt.Sprintf("- %s (type: %s)", d.Filename, d.FileType))
		if preview := strings.TrimSpace(truncateRunes(d.Content, metadataPreviewChars)); preview != "" {
			b.WriteString(fmt.Sprintf("\n  Preview: %s", preview))
		}
		b.WriteString("\n")
	}
	return b.String()
}

const metadataSystemPrompt = "You are an assistant that answers questions about the user's uploaded documents. " +
	"You only know the document names and the short previews listed below, not their full contents. " +
	"Answer in terms of which documents exist and what they appear to cover. " +
	"Do not fabricate document contents beyond the previews."

const genericSystemPrompt = "You are a helpful assistant. No document context is available for this question, " +
	"so answer from your own general knowledge. If the question clearly depends on the user's documents, " +
	"say that you could not consult them and answer as best you can in general terms."

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
