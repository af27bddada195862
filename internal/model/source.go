package model

const (
	SourceTypeFile    = "file"
	SourceTypeText    = "text"
	SourceTypeURL     = "url"
	SourceTypeInsight = "insight"
)

// Source is an ingested document: extracted plain text plus where it came
// from. Immutable once created; re-ingesting produces a new source.
type Source struct {
	ID         string `json:"id"`
	NotebookID string `json:"notebook_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Content    string `json:"content"`
	FileName   string `json:"file_name,omitempty"`
	FileSize   int64  `json:"file_size,omitempty"`
	ChunkCount int    `json:"chunk_count"`
	Ctime      int64  `json:"ctime"`
}
