// Package extractor turns raw uploaded bytes into plain text. Rich formats
// (pdf, office) are expected to arrive through an external converter; this
// package handles the text and markdown formats the server accepts directly
// and rejects everything else with ErrUnsupportedFormat.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
)

type Extractor interface {
	Extract(ctx context.Context, raw []byte, formatHint string) (string, error)
}

type textExtractor struct{}

func New() Extractor {
	return &textExtractor{}
}

func (e *textExtractor) Extract(ctx context.Context, raw []byte, formatHint string) (string, error) {
	_ = ctx
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: not valid utf-8", appErr.ErrUnsupportedFormat)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(formatHint), "."))
	if ext == "" {
		ext = strings.ToLower(strings.TrimSpace(formatHint))
	}
	switch ext {
	case "txt", "text", "log", "":
		return string(raw), nil
	case "md", "markdown":
		return markdownToText(raw), nil
	default:
		return "", fmt.Errorf("%w: %s", appErr.ErrUnsupportedFormat, ext)
	}
}

// markdownToText flattens a markdown document to its visible text, one line
// per block, so headings and paragraphs chunk the same way plain text does.
func markdownToText(raw []byte) string {
	md := goldmark.New()
	reader := text.NewReader(raw)
	doc := md.Parser().Parse(reader)

	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			var sb strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				sb.Write(line.Value(raw))
			}
			if s := strings.TrimSpace(sb.String()); s != "" {
				blocks = append(blocks, s)
			}
		default:
			if s := blockText(node, raw); s != "" {
				blocks = append(blocks, s)
			}
		}
	}
	return strings.Join(blocks, "\n")
}

func blockText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			if node.(*ast.Text).HardLineBreak() || node.(*ast.Text).SoftLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
