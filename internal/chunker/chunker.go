// Package chunker splits extracted source text into bounded, overlapping
// spans. Texts that are mostly CJK are cut by rune windows, everything else
// by whitespace-token accumulation.
package chunker

import (
	"strings"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200

	// cjkThreshold is the CJK rune ratio above which the rune-window
	// strategy is selected.
	cjkThreshold = 0.3
)

// snapPunct is the set of marks a rune-window boundary may snap back to.
const snapPunct = "。！？；，、．.!?;,\n"

// Piece is a single produced span before it is attached to a source.
type Piece struct {
	Text string
	Lang string
}

const (
	LangCJK   = "cjk"
	LangLatin = "latin"
)

type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split produces the chunk spans for text. Empty or whitespace-only input
// yields no pieces. Every piece is non-empty and at most size runes long,
// except a single token longer than the whole budget, which is emitted
// whole rather than truncated.
func (c *Chunker) Split(text string) []Piece {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if cjkRatio(text) > cjkThreshold {
		return c.splitRunes(text)
	}
	return c.splitWords(text)
}

// splitRunes slides a fixed rune window with overlap. The right boundary
// snaps to the nearest preceding punctuation mark within the back-off span
// when one exists, otherwise it cuts hard at the size limit.
func (c *Chunker) splitRunes(text string) []Piece {
	runes := []rune(text)
	backoff := c.size / 3
	if backoff > 120 {
		backoff = 120
	}

	var pieces []Piece
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			pieces = append(pieces, Piece{Text: string(runes[start:]), Lang: LangCJK})
			break
		}
		if snapped := snapToPunct(runes, end, backoff); snapped > start {
			end = snapped
		}
		pieces = append(pieces, Piece{Text: string(runes[start:end]), Lang: LangCJK})
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return pieces
}

// snapToPunct returns the boundary just after the last punctuation mark in
// (end-backoff, end], or end when the span holds none.
func snapToPunct(runes []rune, end, backoff int) int {
	low := end - backoff
	if low < 0 {
		low = 0
	}
	for i := end - 1; i >= low; i-- {
		if strings.ContainsRune(snapPunct, runes[i]) {
			return i + 1
		}
	}
	return end
}

// splitWords accumulates whitespace-delimited tokens until the rune budget
// is reached, carrying the trailing tokens that fit inside the overlap
// budget into the next piece.
func (c *Chunker) splitWords(text string) []Piece {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var pieces []Piece
	var cur []string
	curLen := 0
	for _, w := range words {
		wl := len([]rune(w))
		if curLen > 0 && curLen+1+wl > c.size {
			pieces = append(pieces, Piece{Text: strings.Join(cur, " "), Lang: LangLatin})
			cur, curLen = overlapTail(cur, c.overlap)
		}
		if curLen > 0 {
			curLen++
		}
		cur = append(cur, w)
		curLen += wl
	}
	if len(cur) > 0 {
		pieces = append(pieces, Piece{Text: strings.Join(cur, " "), Lang: LangLatin})
	}
	return pieces
}

// overlapTail keeps the trailing tokens whose joined length fits in the
// overlap budget. It never retains the whole piece, so forward progress is
// guaranteed even when a single token exceeds the budget.
func overlapTail(words []string, overlap int) ([]string, int) {
	total := 0
	keep := 0
	for i := len(words) - 1; i > 0; i-- {
		wl := len([]rune(words[i]))
		if total > 0 {
			wl++
		}
		if total+wl > overlap {
			break
		}
		total += wl
		keep++
	}
	if keep == 0 {
		return nil, 0
	}
	tail := make([]string, keep)
	copy(tail, words[len(words)-keep:])
	return tail, total
}

func cjkRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	count := 0
	for _, r := range runes {
		if r >= 0x4E00 && r <= 0x9FFF {
			count++
		}
	}
	return float64(count) / float64(len(runes))
}
