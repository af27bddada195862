package model

type Notebook struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}
