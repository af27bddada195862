package agent

import (
	"fmt"
	"strings"

	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
)

// extractMindmap validates that the provider produced well-formed mermaid
// mindmap markup and returns the bare markup. A ParseError lets the caller
// degrade to raw text instead of failing the job.
func extractMindmap(content string) (string, error) {
	markup := strings.TrimSpace(content)
	if fenced := extractFence(markup, "mermaid"); fenced != "" {
		markup = fenced
	}
	lines := strings.Split(markup, "\n")
	if len(lines) < 2 {
		return "", &appErr.ParseError{Kind: "mindmap", Err: fmt.Errorf("markup too short")}
	}
	if strings.TrimSpace(lines[0]) != "mindmap" {
		return "", &appErr.ParseError{Kind: "mindmap", Err: fmt.Errorf("missing mindmap header")}
	}
	root := -1
	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent == 0 {
			// a second zero-indent line means two roots
			if root >= 0 {
				return "", &appErr.ParseError{Kind: "mindmap", Err: fmt.Errorf("multiple roots at line %d", i+2)}
			}
			root = i + 1
		}
	}
	if root < 0 {
		// every node indented: mermaid still accepts it, first node is root
		root = 1
	}
	return markup, nil
}

// extractFence returns the body of the first ``` block tagged lang, or "".
func extractFence(content, lang string) string {
	open := "```" + lang
	start := strings.Index(content, open)
	if start < 0 {
		return ""
	}
	rest := content[start+len(open):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
