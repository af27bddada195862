package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	c := New(100, 20)
	require.Nil(t, c.Split(""))
	require.Nil(t, c.Split("   \n\t  "))
}

func TestSplitWordsReconstruction(t *testing.T) {
	c := New(40, 0)
	input := "the quick brown fox jumps over the lazy dog and keeps running through the field until sunset"
	pieces := c.Split(input)
	require.NotEmpty(t, pieces)

	var parts []string
	for i, p := range pieces {
		require.NotEmpty(t, p.Text)
		require.Equal(t, LangLatin, p.Lang)
		require.LessOrEqual(t, len([]rune(p.Text)), 40, "piece %d over budget", i)
		parts = append(parts, p.Text)
	}
	require.Equal(t, strings.Join(strings.Fields(input), " "), strings.Join(parts, " "))
}

func TestSplitWordsOverlapIsSuffixOfPrevious(t *testing.T) {
	c := New(50, 15)
	input := strings.Repeat("alpha beta gamma delta epsilon ", 20)
	pieces := c.Split(input)
	require.Greater(t, len(pieces), 1)

	for i := 1; i < len(pieces); i++ {
		prev := strings.Fields(pieces[i-1].Text)
		curr := strings.Fields(pieces[i].Text)
		// The carried tokens at the head of each piece must be a suffix of
		// the previous one.
		overlap := 0
		for overlap < len(curr) && overlap < len(prev) {
			tail := prev[len(prev)-overlap-1:]
			if !equalTokens(tail, curr[:overlap+1]) {
				break
			}
			overlap++
		}
		require.Greater(t, overlap, 0, "piece %d shares no overlap with predecessor", i)
	}
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSplitWordsOverlapReconstruction(t *testing.T) {
	c := New(40, 12)
	input := "alpha bravo charlie delta echo foxtrot golf hotel india juliett kilo lima mike november oscar papa quebec romeo sierra tango uniform victor whiskey xray yankee zulu"
	pieces := c.Split(input)
	require.Greater(t, len(pieces), 1)

	// Dropping each piece's carried prefix must reconstruct the original
	// token sequence exactly.
	tokens := strings.Fields(pieces[0].Text)
	for i := 1; i < len(pieces); i++ {
		prev := strings.Fields(pieces[i-1].Text)
		curr := strings.Fields(pieces[i].Text)
		carried := 0
		for n := 1; n <= len(prev) && n <= len(curr); n++ {
			if equalTokens(prev[len(prev)-n:], curr[:n]) {
				carried = n
			}
		}
		require.Greater(t, carried, 0, "piece %d carries no overlap", i)
		tokens = append(tokens, curr[carried:]...)
	}
	require.Equal(t, strings.Fields(input), tokens)
}

func TestSplitRunesOverlapReconstruction(t *testing.T) {
	c := New(10, 3)
	// No punctuation, so every boundary is a fixed window and each piece
	// repeats exactly the overlap runes of its predecessor.
	input := strings.Repeat("汉字文本测试内容样例", 8)
	pieces := c.Split(input)
	require.Greater(t, len(pieces), 1)

	var sb strings.Builder
	sb.WriteString(pieces[0].Text)
	for i := 1; i < len(pieces); i++ {
		prev := []rune(pieces[i-1].Text)
		curr := []rune(pieces[i].Text)
		require.Equal(t, string(prev[len(prev)-3:]), string(curr[:3]), "piece %d prefix", i)
		sb.WriteString(string(curr[3:]))
	}
	require.Equal(t, input, sb.String())
}

func TestSplitOversizedTokenEmittedWhole(t *testing.T) {
	c := New(20, 5)
	long := strings.Repeat("x", 50)
	input := "start " + long + " end"
	pieces := c.Split(input)
	require.NotEmpty(t, pieces)

	found := false
	for _, p := range pieces {
		if strings.Contains(p.Text, long) {
			found = true
		}
	}
	require.True(t, found, "oversized token must be emitted whole")
}

func TestSplitRunesSelectsCJKStrategy(t *testing.T) {
	c := New(10, 2)
	input := strings.Repeat("春眠不觉晓，处处闻啼鸟。", 5)
	pieces := c.Split(input)
	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		require.NotEmpty(t, p.Text)
		require.Equal(t, LangCJK, p.Lang)
		require.LessOrEqual(t, len([]rune(p.Text)), 10)
	}
}

func TestSplitRunesSnapsToPunctuation(t *testing.T) {
	c := New(7, 0)
	input := "春眠不觉晓。处处闻啼鸟，夜来风雨声。花落知多少。"
	pieces := c.Split(input)
	require.Greater(t, len(pieces), 1)
	// All pieces but the last should end on a punctuation mark thanks to
	// boundary snapping.
	for i := 0; i < len(pieces)-1; i++ {
		runes := []rune(pieces[i].Text)
		last := runes[len(runes)-1]
		require.True(t, strings.ContainsRune(snapPunct, last), "piece %d ends with %q", i, last)
	}
}

func TestSplitRunesZeroOverlapReconstruction(t *testing.T) {
	c := New(7, 0)
	input := strings.Repeat("汉字文本测试内容", 9)
	pieces := c.Split(input)
	var sb strings.Builder
	for _, p := range pieces {
		sb.WriteString(p.Text)
	}
	require.Equal(t, input, sb.String())
}

func TestSplitDeterministic(t *testing.T) {
	c := New(30, 10)
	input := "Deterministic chunking must always yield identical pieces for identical input text."
	first := c.Split(input)
	second := c.Split(input)
	require.Equal(t, first, second)
}

func TestNewClampsBadConfig(t *testing.T) {
	c := New(-5, -1)
	require.Equal(t, DefaultSize, c.size)
	require.Equal(t, DefaultOverlap, c.overlap)

	c = New(10, 50)
	require.Equal(t, 2, c.overlap)
}
