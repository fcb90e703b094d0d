package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestWindowCoversWholeText(t *testing.T) {
	e := New(DefaultConfig(), nil)

	text := strings.TrimSpace(strings.Repeat("Sentence number one goes here. ", 200))
	chunks := e.chunkByWindow(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple windows, got %d", len(chunks))
	}
	if !strings.HasPrefix(text, chunks[0][:20]) {
		t.Errorf("first window should start at the beginning of the text")
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(text, last[len(last)-20:]) {
		t.Errorf("last window should end at the end of the text")
	}
}

func TestWindowOverlap(t *testing.T) {
	cfg := DefaultConfig()
	e := New(cfg, nil)

	// Separator-free text prevents sentence snapping, so windows advance by
	// exactly size minus overlap and each one starts inside its predecessor.
	text := strings.Repeat("abcdefghij", 300)
	chunks := e.chunkByWindow(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple windows, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		overlap := chunks[i][:cfg.Overlap]
		if !strings.Contains(chunks[i-1], overlap[:50]) {
			t.Fatalf("window %d does not overlap its predecessor", i)
		}
	}
}

func TestWindowTinyInput(t *testing.T) {
	e := New(DefaultConfig(), nil)

	chunks := e.chunkByWindow("just a few words")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for tiny input, got %d", len(chunks))
	}
	if chunks[0] != "just a few words" {
		t.Errorf("tiny input should come back verbatim, got %q", chunks[0])
	}
}

func TestWindowSnapsToSentenceEnd(t *testing.T) {
	cfg := DefaultConfig()
	e := New(cfg, nil)

	// Sentences short enough that every window finds a period in its second
	// half; every emitted chunk should then end on one.
	text := strings.TrimSpace(strings.Repeat("This sentence has a period at its end. ", 100))
	chunks := e.chunkByWindow(text)

	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c, ".") {
			t.Fatalf("chunk %d does not end at a sentence boundary: %q", i, c[len(c)-30:])
		}
	}
}

func TestWindowTerminatesOnPathologicalInput(t *testing.T) {
	cfg := Config{Size: 100, Overlap: 99, Min: 10, Max: 2000, LargeDocThreshold: 50000}
	e := New(cfg, nil)

	text := strings.Repeat("z", 1000)
	chunks := e.chunkByWindow(text)
	if len(chunks) == 0 {
		t.Fatal("expected chunks for non-empty input")
	}
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > cfg.Size {
			t.Fatalf("chunk exceeds window size: %d runes", utf8.RuneCountInString(c))
		}
	}
}
