package model

type Commit struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	CommitHash   string `json:"commit_hash"`
	Message      string `json:"message"`
	AuthorName   string `json:"author_name"`
	AuthorAvatar string `json:"author_avatar"`
	CommitDate   string `json:"commit_date"`
	Summary      string `json:"summary"`
	Ctime        int64  `json:"ctime"`
}
