package model

type SourceCodeEmbedding struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"project_id"`
	FileName         string    `json:"file_name"`
	SourceCode       string    `json:"source_code"`
	Summary          string    `json:"summary"`
	SummaryEmbedding []float32 `json:"-"`
	Ctime            int64     `json:"ctime"`
}

// FileReference is one retrieved context row returned alongside an answer.
type FileReference struct {
	FileName   string  `json:"file_name"`
	SourceCode string  `json:"source_code"`
	Summary    string  `json:"summary"`
	Similarity float64 `json:"similarity"`
}
