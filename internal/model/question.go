package model

type Question struct {
	ID             string          `json:"id"`
	ProjectID      string          `json:"project_id"`
	UserID         string          `json:"user_id"`
	Question       string          `json:"question"`
	Answer         string          `json:"answer"`
	FileReferences []FileReference `json:"file_references"`
	Ctime          int64           `json:"ctime"`
}
