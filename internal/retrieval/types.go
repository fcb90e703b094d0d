package retrieval

// Result is an ephemeral record of one retrieved passage. Not persisted.
type Result struct {
	Text   string
	Source string // originating document filename
	Score  float64
	Method string // retrieval technique tag
}

const (
	// Passages shorter than this are discarded at ingestion into the
	// dedup set, regardless of technique.
	minPassageLen = 20

	// Length of the text prefix used as the deduplication key. Passages
	// sharing a prefix this long are treated as the same passage.
	dedupPrefixLen = 100
)

// resultSet accumulates passages across retrieval techniques, deduplicating
// by a truncated-text prefix. Insertion order is preserved so that on score
// ties the earlier technique wins; a duplicate keeps its first position but
// takes the higher score.
type resultSet struct {
	order []string
	byKey map[string]*Result
}

func newResultSet() *resultSet {
	return &resultSet{byKey: make(map[string]*Result)}
}

func dedupKey(text string) string {
	runes := []rune(text)
	if len(runes) > dedupPrefixLen {
		runes = runes[:dedupPrefixLen]
	}
	return string(runes)
}

// add inserts a passage unless it is too short or already present.
// Returns true if the set grew.
func (s *resultSet) add(r Result) bool {
	if len([]rune(r.Text)) < minPassageLen {
		return false
	}
	key := dedupKey(r.Text)
	if existing, ok := s.byKey[key]; ok {
		if r.Score > existing.Score {
			existing.Score = r.Score
		}
		return false
	}
	stored := r
	s.byKey[key] = &stored
	s.order = append(s.order, key)
	return true
}

func (s *resultSet) len() int {
	return len(s.order)
}

// results returns the accumulated passages in insertion order.
func (s *resultSet) results() []Result {
	out := make([]Result, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, *s.byKey[key])
	}
	return out
}
