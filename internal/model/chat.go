package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	ID        string   `json:"id"`
	SessionID string   `json:"session_id"`
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	SourceIDs []string `json:"source_ids,omitempty"`
	Ctime     int64    `json:"ctime"`
}

// ChatSession owns its message list: messages are append-only, ordered by
// ctime then insertion, and grow by exactly two per successful turn.
type ChatSession struct {
	ID         string        `json:"id"`
	NotebookID string        `json:"notebook_id"`
	Title      string        `json:"title"`
	Messages   []ChatMessage `json:"messages,omitempty"`
	Ctime      int64         `json:"ctime"`
	Mtime      int64         `json:"mtime"`
}
