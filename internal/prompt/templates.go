package prompt

// Each transformation kind owns one immutable template. The instruction text
// states the output contract the agent relies on afterwards: mindmap must
// produce mermaid markup, ppt must produce the delimited slide list.
var kindInstructions = map[Kind]string{
	KindSummary: `Write a concise summary of the sources below.
- Capture the main arguments and key facts.
- Use short paragraphs, markdown formatting.
- Use the dominant language of the sources.`,

	KindFAQ: `Produce a FAQ based on the sources below.
- 5 to 10 question/answer pairs covering the important points.
- Format each as "**Q:** ..." then "**A:** ...".
- Use the dominant language of the sources.`,

	KindStudyGuide: `Create a study guide from the sources below.
- Sections: key concepts, important terms, review questions with answers.
- Use markdown headings and lists.
- Use the dominant language of the sources.`,

	KindOutline: `Produce a hierarchical outline of the sources below.
- Nested markdown lists, at most three levels deep.
- Preserve the order of the material.
- Use the dominant language of the sources.`,

	KindPodcast: `Write a two-host podcast script discussing the sources below.
- Hosts are "A" and "B"; alternate lines prefixed with the host name.
- Conversational tone, cover the main points, 800-1500 words.
- Use the dominant language of the sources.`,

	KindTimeline: `Extract a chronological timeline from the sources below.
- One markdown list entry per event: "**<date or period>** — <event>".
- Order strictly by time; omit undatable items.
- Use the dominant language of the sources.`,

	KindGlossary: `Build a glossary of the domain terms in the sources below.
- One markdown list entry per term: "**<term>**: <definition>".
- Sort alphabetically.
- Use the dominant language of the sources.`,

	KindQuiz: `Write a quiz on the sources below.
- 8 multiple-choice questions, four options each, exactly one correct.
- After the questions, an "Answers" section listing the correct options.
- Use the dominant language of the sources.`,

	KindMindmap: `Render the structure of the sources below as a mermaid mind map.
- Output ONLY a fenced code block starting with ` + "```mermaid" + ` whose first
  line inside the fence is "mindmap".
- One root node, two to four levels of indented child nodes.
- Use the dominant language of the sources.`,

	KindInfograph: `Design a single-figure infographic for the sources below.
- Describe the figure as a precise visual brief an illustrator could execute:
  layout, sections, headline numbers, icons and captions.
- Plain text only, no markdown tables.
- Use the dominant language of the sources.`,

	KindPPT: `Design a slide deck for the sources below.
- First output a <STYLE_INSTRUCTIONS>...</STYLE_INSTRUCTIONS> block describing
  the shared visual style.
- Then one section per slide, each starting with a line "Slide N:" followed by
  "Narrative goal:" and "Key content:" lines.
- 5 to 10 slides.
- Use the dominant language of the sources.`,

	KindInsight: `Write an analytical summary of the sources below as the basis
for a deep-dive report.
- Core findings, trends and patterns, risks, opportunities.
- Use markdown headings.
- Use the dominant language of the sources.`,
}

// insightReportInstruction drives the second pass of the insight kind.
const insightReportInstruction = `Based on the analytical summary below, write an
in-depth insight report with these sections:
1. Core findings and key insights
2. Trends and patterns
3. Risks and open problems
4. Opportunities and recommendations
5. Strategic outlook

Be forward-looking and specific. Use the same language as the summary.

SUMMARY:
%s`

const chatInstruction = `You are a research assistant answering questions about
a user's notebook. Ground every answer in the provided source excerpts and say
so when they do not contain the answer. Answer in the language of the question.`
