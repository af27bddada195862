package model

const (
	ChunkLangCJK   = "cjk"
	ChunkLangLatin = "latin"
)

// Chunk is the unit of retrieval: a bounded, possibly overlapping span of a
// source's text. Chunks are immutable and belong to exactly one source; the
// id is derived from the source id and the sequence index so that rebuilding
// an index from the same sources yields identical ids.
type Chunk struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id"`
	Seq      int    `json:"seq"`
	Text     string `json:"text"`
	Chars    int    `json:"chars"`
	Lang     string `json:"lang"`
	// SourceName is carried for prompt tagging, not persisted separately.
	SourceName string `json:"source_name,omitempty"`
}

// ScoredChunk pairs a chunk reference with its relevance score.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
