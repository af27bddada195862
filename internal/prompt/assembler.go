// Package prompt renders provider requests: one immutable template per
// transformation kind plus the RAG chat template. Rendering is pure string
// work; the assembler performs no I/O.
package prompt

import (
	"fmt"
	"strings"

	"github.com/Beeta/pynotex/internal/model"
)

const (
	DefaultMaxContextChars = 128000
	DefaultHistoryTurns    = 10
	DefaultHistoryBudget   = 8000
)

type Assembler struct {
	maxContextChars int
	historyTurns    int
	historyBudget   int
}

func NewAssembler(maxContextChars int) *Assembler {
	if maxContextChars <= 0 {
		maxContextChars = DefaultMaxContextChars
	}
	return &Assembler{
		maxContextChars: maxContextChars,
		historyTurns:    DefaultHistoryTurns,
		historyBudget:   DefaultHistoryBudget,
	}
}

// Transformation renders the request for one transformation kind over the
// given sources. extra is the caller's optional free-text steering prompt.
func (a *Assembler) Transformation(kind Kind, nb model.Notebook, sources []model.Source, extra string) string {
	var sb strings.Builder
	sb.WriteString(kindInstructions[kind])
	sb.WriteString("\n\nNotebook: ")
	sb.WriteString(nb.Name)
	if extra = strings.TrimSpace(extra); extra != "" {
		sb.WriteString("\n\nAdditional instructions: ")
		sb.WriteString(extra)
	}
	sb.WriteString("\n\nSOURCES:\n")
	sb.WriteString(a.sourceContext(sources))
	return sb.String()
}

// InsightReport renders the second provider pass of the insight kind.
func (a *Assembler) InsightReport(summary string) string {
	return fmt.Sprintf(insightReportInstruction, summary)
}

// Chat merges the system instruction, the deduplicated source-tagged top-k
// chunks and the trailing history turns into one request.
func (a *Assembler) Chat(nb model.Notebook, hits []model.ScoredChunk, history []model.ChatMessage, question string) string {
	var sb strings.Builder
	sb.WriteString(chatInstruction)
	sb.WriteString("\n\nNotebook: ")
	sb.WriteString(nb.Name)

	if ctx := a.chunkContext(hits); ctx != "" {
		sb.WriteString("\n\nRelevant excerpts:\n")
		sb.WriteString(ctx)
	}
	if h := a.historyContext(history); h != "" {
		sb.WriteString("\nConversation so far:\n")
		sb.WriteString(h)
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\nAnswer:")
	return sb.String()
}

func (a *Assembler) sourceContext(sources []model.Source) string {
	var sb strings.Builder
	for i, src := range sources {
		sb.WriteString(fmt.Sprintf("\n## Source %d: %s\n", i+1, src.Name))
		content := src.Content
		if runes := []rune(content); len(runes) > a.maxContextChars {
			sb.WriteString(string(runes[:a.maxContextChars]))
			sb.WriteString(fmt.Sprintf("\n... [truncated, total length: %d]\n", len(runes)))
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (a *Assembler) chunkContext(hits []model.ScoredChunk) string {
	var sb strings.Builder
	seen := make(map[string]bool)
	n := 0
	for _, hit := range hits {
		if seen[hit.Chunk.ID] {
			continue
		}
		seen[hit.Chunk.ID] = true
		n++
		sb.WriteString(fmt.Sprintf("[%d] %s\n", n, hit.Chunk.Text))
		if hit.Chunk.SourceName != "" {
			sb.WriteString(fmt.Sprintf("    (source: %s)\n", hit.Chunk.SourceName))
		}
	}
	return sb.String()
}

// historyContext keeps the most recent turns: the oldest are dropped first,
// both beyond the turn count and beyond the character budget.
func (a *Assembler) historyContext(history []model.ChatMessage) string {
	if len(history) > a.historyTurns {
		history = history[len(history)-a.historyTurns:]
	}
	lines := make([]string, 0, len(history))
	total := 0
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		label := "User"
		if msg.Role == model.RoleAssistant {
			label = "Assistant"
		}
		line := label + ": " + msg.Content + "\n"
		chars := len([]rune(line))
		if total+chars > a.historyBudget && len(lines) > 0 {
			break
		}
		total += chars
		lines = append(lines, line)
	}
	var sb strings.Builder
	for i := len(lines) - 1; i >= 0; i-- {
		sb.WriteString(lines[i])
	}
	return sb.String()
}
