// Package retriever ranks a notebook's chunks against a query with a
// deterministic lexical heuristic. It performs no I/O; swapping in a real
// similarity scorer only requires another Scorer implementation.
package retriever

import (
	"sort"
	"strings"
	"unicode"

	"github.com/Beeta/pynotex/internal/model"
)

const (
	substringWeight   = 10.0
	charOverlapWeight = 5.0
	wordOverlapWeight = 2.0
	keywordWeight     = 1.0
)

// questionKeywords are low-cost high-signal markers; the CJK entries match
// as substrings of the query since they never form whitespace tokens.
var questionKeywords = map[string]bool{
	"what": true, "when": true, "where": true, "which": true,
	"who": true, "why": true, "how": true,
}

var cjkQuestionKeywords = []string{"介绍", "什么", "啥", "内容", "文档", "说"}

// Scorer computes the relevance of one chunk for a query.
type Scorer interface {
	Score(query string, c model.Chunk) float64
}

type Retriever struct {
	scorer Scorer
}

func New(scorer Scorer) *Retriever {
	return &Retriever{scorer: scorer}
}

func NewLexical() *Retriever {
	return New(LexicalScorer{})
}

// Retrieve returns the top-k chunks by descending score. Ties keep the
// original chunk order. When nothing scores above zero the first top-k
// chunks are returned as a fallback so the caller always has context.
func (r *Retriever) Retrieve(query string, chunks []model.Chunk, topK int) []model.ScoredChunk {
	if topK <= 0 {
		topK = 5
	}
	if len(chunks) == 0 {
		return nil
	}

	scored := make([]model.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		if s := r.scorer.Score(query, c); s > 0 {
			scored = append(scored, model.ScoredChunk{Chunk: c, Score: s})
		}
	}
	if len(scored) == 0 {
		n := topK
		if n > len(chunks) {
			n = len(chunks)
		}
		fallback := make([]model.ScoredChunk, 0, n)
		for _, c := range chunks[:n] {
			fallback = append(fallback, model.ScoredChunk{Chunk: c})
		}
		return fallback
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored
}

// LexicalScorer implements the keyword-match heuristic: a verbatim
// substring bonus, a shared-character ratio, whole-word overlap, and a
// small bonus for high-signal query tokens.
type LexicalScorer struct{}

func (LexicalScorer) Score(query string, c model.Chunk) float64 {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	if queryLower == "" {
		return 0
	}
	contentLower := strings.ToLower(c.Text)

	var score float64
	if strings.Contains(contentLower, queryLower) {
		score += substringWeight
	}

	queryRunes := []rune(queryLower)
	matched := 0
	for _, r := range queryRunes {
		if strings.ContainsRune(contentLower, r) {
			matched++
		}
	}
	if matched > 0 {
		score += charOverlapWeight * float64(matched) / float64(len(queryRunes))
	}

	contentWords := wordSet(contentLower)
	for _, token := range strings.Fields(queryLower) {
		word := trimToken(token)
		if len([]rune(word)) <= 2 {
			continue
		}
		if contentWords[word] {
			score += wordOverlapWeight
		}
	}

	for _, token := range strings.Fields(query) {
		if highSignal(token) {
			score += keywordWeight
		}
	}
	for _, kw := range cjkQuestionKeywords {
		if strings.Contains(queryLower, kw) {
			score += keywordWeight
			break
		}
	}
	return score
}

func wordSet(content string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(content) {
		if t := trimToken(w); t != "" {
			set[t] = true
		}
	}
	return set
}

func trimToken(token string) string {
	return strings.TrimFunc(token, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// highSignal flags query tokens that usually carry the question's intent:
// proper nouns, numbers, and a small interrogative list.
func highSignal(token string) bool {
	trimmed := trimToken(token)
	if trimmed == "" {
		return false
	}
	runes := []rune(trimmed)
	if unicode.IsUpper(runes[0]) {
		return true
	}
	digits := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits > 0 && digits == len(runes) {
		return true
	}
	return questionKeywords[strings.ToLower(trimmed)]
}
