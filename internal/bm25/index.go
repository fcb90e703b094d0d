// Package bm25 provides an in-memory Okapi BM25 index over a project's
// passage corpus. The index is rebuilt wholesale, never incrementally: a
// dirty flag is set on every document ingestion and the next search rebuilds.
// Rebuilds are not mutex-protected; the built state is swapped atomically and
// concurrent rebuilds converge on last-write-wins. The cost of losing that
// race is a few missed lexical hits, not a correctness failure.
package bm25

import (
	"math"
	"sort"
	"sync/atomic"
)

const (
	defaultK1 = 1.5
	defaultB  = 0.75
)

// Document is one indexable passage.
type Document struct {
	ID   string
	Text string
}

// Result is one scored match.
type Result struct {
	ID    string
	Score float64
}

// Index is a BM25 index over one corpus.
type Index struct {
	k1    float64
	b     float64
	dirty atomic.Bool
	state atomic.Pointer[indexState]
}

type indexState struct {
	ids       []string
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	docFreq   map[string]int
}

// New creates an empty index marked dirty so the first search triggers a build.
func New() *Index {
	idx := &Index{k1: defaultK1, b: defaultB}
	idx.dirty.Store(true)
	return idx
}

// MarkDirty flags the index for rebuild on next use.
func (i *Index) MarkDirty() {
	i.dirty.Store(true)
}

// Dirty reports whether the corpus changed since the last rebuild.
func (i *Index) Dirty() bool {
	return i.dirty.Load() || i.state.Load() == nil
}

// Rebuild replaces the index contents with the given corpus.
func (i *Index) Rebuild(docs []Document) {
	state := &indexState{
		ids:       make([]string, 0, len(docs)),
		termFreqs: make([]map[string]int, 0, len(docs)),
		docLens:   make([]int, 0, len(docs)),
		docFreq:   make(map[string]int),
	}

	var totalLen int
	for _, doc := range docs {
		tokens := Tokenize(doc.Text)
		freq := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freq[tok]++
		}
		for term := range freq {
			state.docFreq[term]++
		}
		state.ids = append(state.ids, doc.ID)
		state.termFreqs = append(state.termFreqs, freq)
		state.docLens = append(state.docLens, len(tokens))
		totalLen += len(tokens)
	}
	if len(docs) > 0 {
		state.avgDocLen = float64(totalLen) / float64(len(docs))
	}

	i.state.Store(state)
	i.dirty.Store(false)
}

// Search scores the corpus against the query and returns up to limit results
// with positive scores, highest first. Ties keep corpus order.
func (i *Index) Search(query string, limit int) []Result {
	state := i.state.Load()
	if state == nil || len(state.ids) == 0 {
		return nil
	}

	queryTokens := FilterStopwords(Tokenize(query))
	if len(queryTokens) == 0 {
		return nil
	}

	n := float64(len(state.ids))
	var results []Result
	for d := range state.ids {
		var score float64
		docLen := float64(state.docLens[d])
		for _, term := range queryTokens {
			tf := float64(state.termFreqs[d][term])
			if tf == 0 {
				continue
			}
			df := float64(state.docFreq[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			denom := tf + i.k1*(1-i.b+i.b*docLen/state.avgDocLen)
			score += idf * tf * (i.k1 + 1) / denom
		}
		if score > 0 {
			results = append(results, Result{ID: state.ids[d], Score: score})
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
