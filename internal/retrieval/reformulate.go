package retrieval

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/contextutil"
	"docqa/internal/llm"
)

const paraphrasePrompt = "Rephrase the following question in %d different ways, " +
	"keeping its meaning. Reply with one rephrasing per line, no numbering.\n\nQuestion: %s"

const followupPrompt = "A user asked: %s\n\nPartial context found so far:\n%s\n\n" +
	"Write up to %d short follow-up search queries that could locate the missing details. " +
	"Reply with one query per line, no numbering."

// reformulatedSearch asks the language model for paraphrases of the question
// and dense-searches each at further-attenuated scores. If the target count
// is still not met, it derives follow-up questions from the passages found
// so far, treating them as partial answers, and searches those too.
// The model being down cancels this technique only.
func (e *Engine) reformulatedSearch(ctx context.Context, question, projectID string, topK int, set *resultSet) {
	logger := contextutil.LoggerFromContext(ctx)

	paraphrases := e.askForLines(ctx, fmt.Sprintf(paraphrasePrompt, 3, question), 3)
	if len(paraphrases) == 0 {
		logger.DebugContext(ctx, "no paraphrases produced, skipping reformulation")
		return
	}

	logVariants(ctx, "paraphrase", paraphrases)
	reducedThreshold := e.cfg.ScoreThreshold * 0.8
	e.searchVariants(ctx, paraphrases, projectID, topK, reducedThreshold, paraphraseDiscount, "paraphrase", set)

	if set.len() >= topK {
		return
	}

	// Follow-up generation needs some context to work from.
	partial := set.results()
	if len(partial) == 0 {
		return
	}
	if len(partial) > 3 {
		partial = partial[:3]
	}
	var contextText strings.Builder
	for _, r := range partial {
		snippet := r.Text
		if len([]rune(snippet)) > 300 {
			snippet = string([]rune(snippet)[:300])
		}
		contextText.WriteString("- ")
		contextText.WriteString(snippet)
		contextText.WriteString("\n")
	}

	followups := e.askForLines(ctx, fmt.Sprintf(followupPrompt, question, contextText.String(), 3), 3)
	if len(followups) == 0 {
		return
	}
	logVariants(ctx, "followup", followups)
	e.searchVariants(ctx, followups, projectID, topK, reducedThreshold, followupDiscount, "followup", set)
}

// askForLines runs one model call and splits the response into up to max
// non-empty lines, stripping list markers. Returns nil on model failure.
func (e *Engine) askForLines(ctx context.Context, prompt string, max int) []string {
	logger := contextutil.LoggerFromContext(ctx)

	response, err := e.model.Complete(ctx, []llm.Message{
		{Role: "user", Content: prompt},
	}, llm.Params{MaxTokens: 300, Temperature: 0.7})
	if err != nil {
		logger.WarnContext(ctx, "reformulation model call failed", "error", err)
		return nil
	}

	var lines []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) >= max {
			break
		}
	}
	return lines
}
