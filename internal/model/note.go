package model

// Note is the stored output of a transformation job.
type Note struct {
	ID         string            `json:"id"`
	NotebookID string            `json:"notebook_id"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Type       string            `json:"type"`
	SourceIDs  []string          `json:"source_ids"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Ctime      int64             `json:"ctime"`
}
