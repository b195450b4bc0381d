package loader

import (
	"context"
	"path"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Pallavikumarimdb/VexonAI/internal/github"
	"github.com/Pallavikumarimdb/VexonAI/internal/model"
	appErr "github.com/Pallavikumarimdb/VexonAI/internal/pkg/errors"
	"github.com/Pallavikumarimdb/VexonAI/internal/ratelimit"
)

// lockfiles and generated artifacts that never help a summary
var ignoredFiles = map[string]struct{}{
	"package-lock.json": {},
	"yarn.lock":         {},
	"pnpm-lock.yaml":    {},
	"bun.lockb":         {},
	"go.sum":            {},
	"cargo.lock":        {},
	"composer.lock":     {},
	"gemfile.lock":      {},
}

var binaryExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {},
	".svg": {}, ".webp": {}, ".pdf": {}, ".zip": {}, ".tar": {}, ".gz": {},
	".rar": {}, ".7z": {}, ".exe": {}, ".dll": {}, ".so": {}, ".dylib": {},
	".bin": {}, ".class": {}, ".jar": {}, ".war": {}, ".mp3": {}, ".mp4": {},
	".avi": {}, ".mov": {}, ".wav": {}, ".ogg": {}, ".ttf": {}, ".otf": {},
	".woff": {}, ".woff2": {}, ".eot": {}, ".lockb": {},
}

// RepoLoader walks a GitHub repository tree and returns the text documents
// worth summarizing. All host calls go through the shared host queue.
type RepoLoader struct {
	gh          *github.Client
	host        *ratelimit.HostQueue
	maxFileSize int64
}

func NewRepoLoader(gh *github.Client, host *ratelimit.HostQueue, maxFileSize int64) *RepoLoader {
	return &RepoLoader{gh: gh, host: host, maxFileSize: maxFileSize}
}

// Load fetches the repository tree and the content of every kept file.
// An empty token is a hard error: anonymous access cannot read private
// repositories and burns through the unauthenticated quota immediately.
// A failed tree walk yields zero documents, not an error.
func (l *RepoLoader) Load(ctx context.Context, repoURL, token string) ([]model.Document, error) {
	if strings.TrimSpace(token) == "" {
		return nil, appErr.ErrAuthRequired
	}
	owner, repo, err := github.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("owner", owner), zap.String("repo", repo))

	entries, err := l.fetchTree(ctx, token, owner, repo)
	if err != nil {
		logger.Error("tree walk failed, ingesting zero documents", zap.Error(err))
		return nil, nil
	}

	var docs []model.Document
	for _, entry := range entries {
		if entry.Type != "blob" {
			continue
		}
		if !l.keep(entry) {
			continue
		}
		var content string
		blobErr := l.host.Do(ctx, func(ctx context.Context) error {
			var err error
			content, err = l.gh.GetBlob(ctx, token, owner, repo, entry.SHA)
			return err
		})
		if blobErr != nil {
			logger.Warn("skip file, blob fetch failed", zap.String("path", entry.Path), zap.Error(blobErr))
			continue
		}
		if int64(len(content)) > l.maxFileSize {
			continue
		}
		docs = append(docs, model.Document{
			FileName:    entry.Path,
			PageContent: content,
			Size:        int64(len(content)),
		})
	}
	logger.Info("repository loaded", zap.Int("documents", len(docs)))
	return docs, nil
}

func (l *RepoLoader) fetchTree(ctx context.Context, token, owner, repo string) ([]github.TreeEntry, error) {
	var entries []github.TreeEntry
	err := l.host.Do(ctx, func(ctx context.Context) error {
		var err error
		entries, err = l.gh.GetTree(ctx, token, owner, repo, "main")
		return err
	})
	if err == nil {
		return entries, nil
	}
	if !appErr.IsNotFound(err) {
		return nil, err
	}
	// repositories predating the default-branch rename
	err = l.host.Do(ctx, func(ctx context.Context) error {
		var err error
		entries, err = l.gh.GetTree(ctx, token, owner, repo, "master")
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *RepoLoader) keep(entry github.TreeEntry) bool {
	name := strings.ToLower(path.Base(entry.Path))
	if _, ok := ignoredFiles[name]; ok {
		return false
	}
	if _, ok := binaryExtensions[strings.ToLower(path.Ext(entry.Path))]; ok {
		return false
	}
	if entry.Size > l.maxFileSize {
		return false
	}
	return true
}
