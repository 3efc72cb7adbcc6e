// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// BM25 parameters (Okapi variant, standard values).
const (
	paramK1      = 1.2
	paramB       = 0.75
	paramEpsilon = 0.25
)

// Composite-document field weights. Title tokens repeat three times
// and heading tokens twice, so a match there outranks the same match
// in body text.
const (
	weightTitle   = 3
	weightHeading = 2
	weightBody    = 1
)

// tokenPattern splits text into alphanumeric runs.
var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Entry is one page in the search corpus: the shape the build writes
// to search-index.json and the index is rebuilt from.
type Entry struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Headings []string `json:"headings,omitempty"`

	// Plain is the page body flattened to unformatted text.
	Plain string `json:"plain"`
}

// Result is a single search hit. The JSON shape is served as-is by
// the preview server's search endpoint.
type Result struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`

	// Score is the relevance score. Higher is more relevant. The
	// scale depends on the corpus — BM25 scores are typically in
	// the range 0–20 but are not bounded.
	Score float64 `json:"score"`
}

// Index is a BM25 (Okapi) index over pages. The index is built at
// load time from search entries and is immutable thereafter — it is
// never persisted. Safe for concurrent read access.
type Index struct {
	// entries stores the original entries for result construction.
	entries []Entry

	// termFrequencies[i][term] is the term frequency in the
	// composite document for entry i.
	termFrequencies []map[string]int

	// lengths[i] is the total token count for entry i.
	lengths []int

	// averageLength is the mean of lengths.
	averageLength float64

	// inverseDocumentFrequency[term] is the precomputed IDF score
	// for each term in the corpus.
	inverseDocumentFrequency map[string]float64
}

// New creates a BM25 index from the given entries. Construction is
// O(total tokens) and takes a few milliseconds for typical sites
// (hundreds of pages).
func New(entries []Entry) *Index {
	index := &Index{
		entries:                  entries,
		termFrequencies:          make([]map[string]int, len(entries)),
		lengths:                  make([]int, len(entries)),
		inverseDocumentFrequency: make(map[string]float64),
	}

	// Track how many entries contain each term (for IDF).
	documentFrequency := make(map[string]int)

	var totalLength int

	for i, entry := range entries {
		tokens := compositeTokens(entry)
		index.lengths[i] = len(tokens)
		totalLength += len(tokens)

		termFrequency := make(map[string]int)
		seen := make(map[string]bool)
		for _, token := range tokens {
			termFrequency[token]++
			if !seen[token] {
				seen[token] = true
				documentFrequency[token]++
			}
		}
		index.termFrequencies[i] = termFrequency
	}

	if len(entries) > 0 {
		index.averageLength = float64(totalLength) / float64(len(entries))
	}

	// Precompute IDF for each term. Terms that appear in every entry
	// get a small positive score (epsilon) rather than zero, so they
	// still contribute a tiny amount to ranking.
	documentCount := float64(len(entries))
	for term, frequency := range documentFrequency {
		idf := math.Log(1 + (documentCount-float64(frequency)+0.5)/(float64(frequency)+0.5))
		if idf < 0 {
			idf = paramEpsilon
		}
		index.inverseDocumentFrequency[term] = idf
	}

	return index
}

// Search returns up to limit pages ranked by BM25 relevance to the
// query. Returns an empty slice if the query produces no tokens or
// matches no pages.
func (index *Index) Search(query string, limit int) []Result {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	type scored struct {
		index int
		score float64
	}
	var hits []scored

	for i := range index.entries {
		score := index.score(i, queryTokens)
		if score > 0 {
			hits = append(hits, scored{index: i, score: score})
		}
	}

	sort.Slice(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]Result, len(hits))
	for i, hit := range hits {
		entry := index.entries[hit.index]
		results[i] = Result{
			Slug:  entry.Slug,
			Title: entry.Title,
			Score: hit.score,
		}
	}
	return results
}

// score computes the BM25 score for a single entry against the query
// tokens.
func (index *Index) score(entryIndex int, queryTokens []string) float64 {
	termFrequency := index.termFrequencies[entryIndex]
	length := float64(index.lengths[entryIndex])

	var score float64
	for _, token := range queryTokens {
		idf, exists := index.inverseDocumentFrequency[token]
		if !exists {
			continue
		}

		frequency := float64(termFrequency[token])
		if frequency == 0 {
			continue
		}

		// BM25 term score: IDF * (tf * (k1 + 1)) / (tf + k1 * (1 - b + b * dl/avgdl))
		numerator := frequency * (paramK1 + 1)
		denominator := frequency + paramK1*(1-paramB+paramB*length/index.averageLength)
		score += idf * numerator / denominator
	}

	return score
}

// compositeTokens builds the weighted token sequence for one entry by
// repeating each field's tokens according to its weight. This is a
// simple alternative to per-field BM25 that works well for corpora of
// this size.
func compositeTokens(entry Entry) []string {
	var tokens []string
	appendWeighted := func(text string, weight int) {
		fieldTokens := Tokenize(text)
		for i := 0; i < weight; i++ {
			tokens = append(tokens, fieldTokens...)
		}
	}

	appendWeighted(entry.Title, weightTitle)
	for _, heading := range entry.Headings {
		appendWeighted(heading, weightHeading)
	}
	appendWeighted(entry.Plain, weightBody)
	return tokens
}

// Tokenize splits text into lowercase alphanumeric tokens, discarding
// tokens shorter than 2 characters. This catches "a", "I", and other
// noise words that don't contribute to relevance ranking.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	matches := tokenPattern.FindAllString(lower, -1)

	// Filter short tokens in place.
	tokens := matches[:0]
	for _, match := range matches {
		if len(match) >= 2 {
			tokens = append(tokens, match)
		}
	}
	return tokens
}
