package prompt

import (
	"strings"

	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
)

// Kind is one of the twelve fixed content transformation modes.
type Kind string

const (
	KindSummary    Kind = "summary"
	KindFAQ        Kind = "faq"
	KindStudyGuide Kind = "study_guide"
	KindOutline    Kind = "outline"
	KindPodcast    Kind = "podcast"
	KindTimeline   Kind = "timeline"
	KindGlossary   Kind = "glossary"
	KindQuiz       Kind = "quiz"
	KindMindmap    Kind = "mindmap"
	KindInfograph  Kind = "infograph"
	KindPPT        Kind = "ppt"
	KindInsight    Kind = "insight"
)

var Kinds = []Kind{
	KindSummary, KindFAQ, KindStudyGuide, KindOutline,
	KindPodcast, KindTimeline, KindGlossary, KindQuiz,
	KindMindmap, KindInfograph, KindPPT, KindInsight,
}

var kindTitles = map[Kind]string{
	KindSummary:    "Summary",
	KindFAQ:        "FAQ",
	KindStudyGuide: "Study Guide",
	KindOutline:    "Outline",
	KindPodcast:    "Podcast Script",
	KindTimeline:   "Timeline",
	KindGlossary:   "Glossary",
	KindQuiz:       "Quiz",
	KindMindmap:    "Mind Map",
	KindInfograph:  "Infographic",
	KindPPT:        "Presentation",
	KindInsight:    "Insight Report",
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kindTitles[k]; !ok {
		return "", appErr.ErrInvalid
	}
	return k, nil
}

func (k Kind) Title() string {
	if t, ok := kindTitles[k]; ok {
		return t
	}
	return "Note"
}

// HasImageAssets reports whether the kind runs the image generation
// sub-step for its parsed slides or figures.
func (k Kind) HasImageAssets() bool {
	return k == KindPPT || k == KindInfograph
}
