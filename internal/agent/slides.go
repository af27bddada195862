package agent

import (
	"regexp"
	"strings"
)

const (
	styleOpenTag  = "<STYLE_INSTRUCTIONS>"
	styleCloseTag = "</STYLE_INSTRUCTIONS>"
)

// Slide is one parsed deck entry; Style carries the deck-wide visual
// instructions shared by every slide.
type Slide struct {
	Style   string
	Content string
}

var slideHeaderRe = regexp.MustCompile(`(?m)^(?:\s*#{1,6}\s*)?(?:Slide|幻灯片|第\d+张幻灯片|##)\s*\d+[:\s]*.*$`)

var slideRequiredMarkers = []string{"narrative goal", "key content", "叙事目标", "关键内容"}

// parseSlides splits a deck response into slides. Parsing is forgiving:
// headers first, then narrative-goal markers, and finally the whole content
// as a single slide so a deck is never lost to formatting drift.
func parseSlides(content string) []Slide {
	style := ""
	if open := strings.Index(content, styleOpenTag); open >= 0 {
		if close := strings.Index(content, styleCloseTag); close > open {
			style = strings.TrimSpace(content[open+len(styleOpenTag) : close])
		}
	}

	var slides []Slide
	matches := slideHeaderRe.FindAllStringIndex(content, -1)
	for i, m := range matches {
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := content[m[0]:end]
		if hasRequiredMarker(body) {
			slides = append(slides, Slide{Style: style, Content: strings.TrimSpace(body)})
		}
	}
	if len(slides) > 0 {
		return slides
	}

	for _, marker := range []string{"// 叙事目标", "// NARRATIVE GOAL"} {
		if !strings.Contains(content, marker) {
			continue
		}
		parts := strings.Split(content, marker)
		for _, part := range parts[1:] {
			slides = append(slides, Slide{Style: style, Content: strings.TrimSpace(marker + part)})
		}
		return slides
	}

	return []Slide{{Style: style, Content: strings.TrimSpace(content)}}
}

func hasRequiredMarker(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range slideRequiredMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
