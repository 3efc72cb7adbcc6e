// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuzzy scores fzf-style fuzzy matches for the viewer's page
// filter. It wraps fzf's FuzzyMatchV2 with case-insensitive semantics
// and ascending match positions for highlight rendering.
package fuzzy

import (
	"sort"
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Slab is fzf's scratch allocation arena. Allocate one per matching
// loop with NewSlab and pass it to every Match call in the loop; nil
// is accepted and allocates per call.
type Slab = util.Slab

// fzf's own slab sizing.
const (
	slab16Size = 100 * 1024
	slab32Size = 2048
)

// NewSlab allocates a match arena sized the way fzf sizes its own.
func NewSlab() *Slab {
	return util.MakeSlab(slab16Size, slab32Size)
}

// Result is one fuzzy match outcome. A zero Score means no match;
// Positions are the matched rune indices in ascending order.
type Result struct {
	Score     int
	Positions []int
}

// Match scores pattern against text. Matching is case-insensitive on
// both sides. An empty pattern never matches.
func Match(text string, pattern []rune, slab *Slab) Result {
	if len(pattern) == 0 {
		return Result{}
	}

	// FuzzyMatchV2 expects a pre-lowered pattern in case-insensitive
	// mode; it lowers the text side itself.
	lowered := make([]rune, len(pattern))
	for i, r := range pattern {
		lowered[i] = unicode.ToLower(r)
	}

	chars := util.ToChars([]byte(text))
	match, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if match.Score <= 0 {
		return Result{}
	}

	result := Result{Score: match.Score}
	if positions != nil {
		result.Positions = *positions
		sort.Ints(result.Positions)
	}
	return result
}
