package bm25

import (
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercase and split on punctuation",
			text: "Hello, World! Go-lang.",
			want: []string{"hello", "world", "go", "lang"},
		},
		{
			name: "digits kept",
			text: "version 2 released",
			want: []string{"version", "2", "released"},
		},
		{
			name: "cyrillic",
			text: "Цена тарифа",
			want: []string{"цена", "тарифа"},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFilterStopwords(t *testing.T) {
	got := FilterStopwords([]string{"the", "price", "of", "это", "tariff"})
	want := []string{"price", "tariff"}
	if len(got) != len(want) {
		t.Fatalf("FilterStopwords() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestIndexStartsDirty(t *testing.T) {
	idx := New()
	if !idx.Dirty() {
		t.Fatal("new index should be dirty")
	}

	idx.Rebuild([]Document{{ID: "a", Text: "hello world"}})
	if idx.Dirty() {
		t.Fatal("rebuilt index should not be dirty")
	}

	idx.MarkDirty()
	if !idx.Dirty() {
		t.Fatal("MarkDirty should flag the index")
	}
}

func TestSearchRanksMatchingDocumentHigher(t *testing.T) {
	idx := New()
	idx.Rebuild([]Document{
		{ID: "cats", Text: "cats are small domestic animals that chase mice"},
		{ID: "pricing", Text: "the pricing plan costs ten dollars per month with a discount"},
		{ID: "dogs", Text: "dogs are loyal animals that enjoy long walks"},
	})

	results := idx.Search("pricing plan discount", 10)
	if len(results) == 0 {
		t.Fatal("expected results for matching query")
	}
	if results[0].ID != "pricing" {
		t.Fatalf("expected pricing document first, got %s", results[0].ID)
	}
	if results[0].Score <= 0 {
		t.Fatalf("expected positive score, got %f", results[0].Score)
	}
}

func TestSearchNoMatches(t *testing.T) {
	idx := New()
	idx.Rebuild([]Document{{ID: "a", Text: "completely unrelated content"}})

	if results := idx.Search("quantum chromodynamics", 5); len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearchStopwordOnlyQuery(t *testing.T) {
	idx := New()
	idx.Rebuild([]Document{{ID: "a", Text: "the quick brown fox"}})

	if results := idx.Search("the and of", 5); results != nil {
		t.Fatalf("expected nil for stopword-only query, got %v", results)
	}
}

func TestSearchLimit(t *testing.T) {
	docs := make([]Document, 10)
	for i := range docs {
		docs[i] = Document{ID: string(rune('a' + i)), Text: "shared keyword appears here"}
	}
	idx := New()
	idx.Rebuild(docs)

	results := idx.Search("shared keyword", 3)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// Equal scores keep corpus order.
	if results[0].ID != "a" || results[1].ID != "b" || results[2].ID != "c" {
		t.Fatalf("expected corpus order on ties, got %v", results)
	}
}

func TestSearchBeforeRebuild(t *testing.T) {
	idx := New()
	if results := idx.Search("anything", 5); results != nil {
		t.Fatalf("expected nil before first rebuild, got %v", results)
	}
}

func TestCachePerProject(t *testing.T) {
	cache := NewCache()

	a := cache.Get("proj-a")
	b := cache.Get("proj-b")
	if a == b {
		t.Fatal("different projects should get different indexes")
	}
	if again := cache.Get("proj-a"); again != a {
		t.Fatal("same project should get the same index")
	}

	a.Rebuild([]Document{{ID: "x", Text: "hello"}})
	cache.MarkDirty("proj-a")
	if !a.Dirty() {
		t.Fatal("MarkDirty on cache should dirty the project's index")
	}

	cache.Drop("proj-a")
	if cache.Get("proj-a") == a {
		t.Fatal("Drop should discard the project's index")
	}
}
