package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appErr "github.com/Pallavikumarimdb/VexonAI/internal/pkg/errors"
)

const (
	defaultAPIBaseURL  = "https://api.github.com"
	defaultHTMLBaseURL = "https://github.com"
)

// Client is a minimal GitHub REST client covering the calls the ingestion
// pipeline needs: tree walk, blob fetch, commit listing and raw commit
// diffs. Every call requires the caller-supplied token.
type Client struct {
	apiBase  string
	htmlBase string
	client   *http.Client
}

type Option func(*Client)

func WithBaseURLs(apiBase, htmlBase string) Option {
	return func(c *Client) {
		c.apiBase = strings.TrimRight(apiBase, "/")
		c.htmlBase = strings.TrimRight(htmlBase, "/")
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		apiBase:  defaultAPIBaseURL,
		htmlBase: defaultHTMLBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseRepoURL extracts owner and repository name from a github URL such as
// https://github.com/owner/repo.
func ParseRepoURL(repoURL string) (string, string, error) {
	u, err := url.Parse(strings.TrimSuffix(repoURL, ".git"))
	if err != nil {
		return "", "", fmt.Errorf("parse repo url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid github url: %s", repoURL)
	}
	return parts[0], parts[1], nil
}

type CommitAuthor struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

type CommitDetail struct {
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
}

type CommitUser struct {
	AvatarURL string `json:"avatar_url"`
}

type Commit struct {
	SHA    string       `json:"sha"`
	Commit CommitDetail `json:"commit"`
	Author *CommitUser  `json:"author"`
}

func (c *Client) ListCommits(ctx context.Context, token, owner, repo string) ([]Commit, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits", c.apiBase, owner, repo)
	var commits []Commit
	if err := c.getJSON(ctx, token, endpoint, &commits); err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	return commits, nil
}

// GetCommitDiff fetches the raw diff of one commit through the html host
// (the /commit/{sha}.diff endpoint), authenticated with the token.
func (c *Client) GetCommitDiff(ctx context.Context, token, owner, repo, sha string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/commit/%s.diff", c.htmlBase, owner, repo, sha)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.v3.diff")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch diff: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch diff %s: unexpected status %s", sha, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

type tree struct {
	Entries   []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// GetTree lists all blobs reachable from the given branch recursively.
func (c *Client) GetTree(ctx context.Context, token, owner, repo, branch string) ([]TreeEntry, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.apiBase, owner, repo, url.PathEscape(branch))
	var t tree
	if err := c.getJSON(ctx, token, endpoint, &t); err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}
	return t.Entries, nil
}

type blob struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (c *Client) GetBlob(ctx context.Context, token, owner, repo, sha string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/blobs/%s", c.apiBase, owner, repo, sha)
	var b blob
	if err := c.getJSON(ctx, token, endpoint, &b); err != nil {
		return "", fmt.Errorf("get blob: %w", err)
	}
	if b.Encoding != "base64" {
		return b.Content, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(b.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode blob %s: %w", sha, err)
	}
	return string(data), nil
}

func (c *Client) getJSON(ctx context.Context, token, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return appErr.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: github replied %s", appErr.ErrAuthRequired, resp.Status)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("github request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
