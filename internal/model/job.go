package model

const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// JobAsset is a per-slide or per-figure sub-result of a transformation job.
// An asset-level image failure is recorded here without failing the job.
type JobAsset struct {
	Seq        int    `json:"seq"`
	Content    string `json:"content,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	ImageError string `json:"image_error,omitempty"`
}

// TransformationJob tracks one content transformation through
// pending -> running -> done|failed. done and failed are terminal.
type TransformationJob struct {
	ID         string     `json:"id"`
	NotebookID string     `json:"notebook_id"`
	Kind       string     `json:"kind"`
	SourceIDs  []string   `json:"source_ids"`
	Status     string     `json:"status"`
	Output     string     `json:"output,omitempty"`
	FailReason string     `json:"fail_reason,omitempty"`
	// ImageError records a job-level image sub-step note (for example the
	// whole deck being over the slide cap); it does not fail the job.
	ImageError string     `json:"image_error,omitempty"`
	Assets     []JobAsset `json:"assets,omitempty"`
	Ctime      int64      `json:"ctime"`
	Mtime      int64      `json:"mtime"`
}
