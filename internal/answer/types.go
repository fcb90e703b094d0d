package answer

import (
	"docqa/internal/llm"
	"docqa/internal/retrieval"
	"docqa/internal/storage"
)

// Mode tags an answer with the path that produced it, so callers and logs can
// tell a grounded answer apart from a degraded one.
type Mode string

const (
	ModeGrounded       Mode = "grounded"
	ModeSingleDocument Mode = "single_document"
	ModeMetadata       Mode = "metadata"
	ModeSubAgent       Mode = "subagent"
	ModeLongContext    Mode = "long_context"
	ModeGeneric        Mode = "generic"
	ModeBasic          Mode = "basic"
)

// Intent classifies what kind of response the question is asking for.
type Intent string

const (
	IntentFactual  Intent = "factual"
	IntentSummary  Intent = "summary"
	IntentOverview Intent = "overview"
	IntentAnalysis Intent = "analysis"
)

// Request carries everything the composer needs for one question.
type Request struct {
	Question string
	Passages []retrieval.Result
	History  []llm.Message
	Project  storage.Project
}

// Result is the composed answer plus its provenance tag.
type Result struct {
	Text string
	Mode Mode
}
