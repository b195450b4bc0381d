package model

// Document is one repository file as surfaced by the GitHub tree walk.
type Document struct {
	FileName    string `json:"file_name"`
	PageContent string `json:"page_content"`
	Size        int64  `json:"size"`
}
