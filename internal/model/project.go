package model

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	GithubURL   string `json:"github_url"`
	GithubToken string `json:"-"`
	Ctime       int64  `json:"ctime"`
}
