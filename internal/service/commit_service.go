package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Pallavikumarimdb/VexonAI/internal/github"
	"github.com/Pallavikumarimdb/VexonAI/internal/model"
	"github.com/Pallavikumarimdb/VexonAI/internal/ratelimit"
)

const maxCommitsPerSync = 10

type projectStore interface {
	Get(ctx context.Context, projectID string) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
}

type commitHost interface {
	ListCommits(ctx context.Context, token, owner, repo string) ([]github.Commit, error)
	GetCommitDiff(ctx context.Context, token, owner, repo, sha string) (string, error)
}

type diffSummarizer interface {
	SummarizeDiff(ctx context.Context, diff string) (string, error)
}

type commitStore interface {
	ListHashes(ctx context.Context, projectID string) (map[string]struct{}, error)
	InsertBatch(ctx context.Context, commits []model.Commit) error
	List(ctx context.Context, projectID string) ([]model.Commit, error)
}

// CommitService keeps a project's commit log in sync with GitHub. Hash
// equality against already persisted rows is the sole dedup mechanism; the
// unique constraint on (project_id, commit_hash) settles concurrent races.
type CommitService struct {
	gh       commitHost
	host     *ratelimit.HostQueue
	ai       diffSummarizer
	limiter  *ratelimit.WindowLimiter
	projects projectStore
	commits  commitStore
}

func NewCommitService(gh commitHost, host *ratelimit.HostQueue, ai diffSummarizer, limiter *ratelimit.WindowLimiter, projects projectStore, commits commitStore) *CommitService {
	return &CommitService{
		gh:       gh,
		host:     host,
		ai:       ai,
		limiter:  limiter,
		projects: projects,
		commits:  commits,
	}
}

// Sync fetches the most recent commits, drops the ones already persisted,
// summarizes each new diff and batch inserts the result. Returns the number
// of rows handed to the insert.
func (s *CommitService) Sync(ctx context.Context, projectID, token string) (int, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("project_id", projectID))

	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if token == "" {
		token = project.GithubToken
	}
	owner, repo, err := github.ParseRepoURL(project.GithubURL)
	if err != nil {
		return 0, err
	}

	var listed []github.Commit
	err = s.host.Do(ctx, func(ctx context.Context) error {
		var err error
		listed, err = s.gh.ListCommits(ctx, token, owner, repo)
		return err
	})
	if err != nil {
		logger.Error("list commits failed", zap.Error(err))
		return 0, err
	}
	recent := sortRecent(listed, maxCommitsPerSync)

	seen, err := s.commits.ListHashes(ctx, projectID)
	if err != nil {
		return 0, err
	}
	var unprocessed []github.Commit
	for _, commit := range recent {
		if _, ok := seen[commit.SHA]; !ok {
			unprocessed = append(unprocessed, commit)
		}
	}
	if len(unprocessed) == 0 {
		logger.Info("no new commits")
		return 0, nil
	}

	// settle all summaries independently: one bad diff must not block the
	// batch, it just gets an empty summary
	summaries := make([]string, len(unprocessed))
	var wg sync.WaitGroup
	for i, commit := range unprocessed {
		wg.Add(1)
		go func(idx int, sha string) {
			defer wg.Done()
			summaries[idx] = s.summarizeCommit(ctx, token, owner, repo, sha)
		}(i, commit.SHA)
	}
	wg.Wait()

	now := time.Now().UnixMilli()
	rows := make([]model.Commit, 0, len(unprocessed))
	for i, commit := range unprocessed {
		var avatar string
		if commit.Author != nil {
			avatar = commit.Author.AvatarURL
		}
		rows = append(rows, model.Commit{
			ID:           newID(),
			ProjectID:    projectID,
			CommitHash:   commit.SHA,
			Message:      commit.Commit.Message,
			AuthorName:   commit.Commit.Author.Name,
			AuthorAvatar: avatar,
			CommitDate:   commit.Commit.Author.Date,
			Summary:      summaries[i],
			Ctime:        now,
		})
	}
	if err := s.commits.InsertBatch(ctx, rows); err != nil {
		return 0, err
	}
	logger.Info("commits synced", zap.Int("inserted", len(rows)))
	return len(rows), nil
}

func (s *CommitService) List(ctx context.Context, projectID string) ([]model.Commit, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.commits.List(ctx, projectID)
}

// SyncAll runs Sync for every project, isolating per-project failures.
// Used by the scheduled background job.
func (s *CommitService) SyncAll(ctx context.Context) error {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, project := range projects {
		if _, err := s.Sync(ctx, project.ID, project.GithubToken); err != nil {
			logger.Warn("project commit sync failed", zap.String("project_id", project.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *CommitService) summarizeCommit(ctx context.Context, token, owner, repo, sha string) string {
	logger := logutil.GetLogger(ctx).With(zap.String("sha", sha))
	var diff string
	err := s.host.Do(ctx, func(ctx context.Context) error {
		var err error
		diff, err = s.gh.GetCommitDiff(ctx, token, owner, repo, sha)
		return err
	})
	if err != nil {
		logger.Warn("diff fetch failed", zap.Error(err))
		return ""
	}
	var summary string
	err = s.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		summary, err = s.ai.SummarizeDiff(ctx, diff)
		return err
	})
	if err != nil {
		logger.Warn("diff summary failed", zap.Error(err))
		return ""
	}
	return summary
}

// sortRecent orders commits newest first by author date and keeps at most
// limit entries. Unparseable dates sort last.
func sortRecent(commits []github.Commit, limit int) []github.Commit {
	sorted := make([]github.Commit, len(commits))
	copy(sorted, commits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return parseCommitDate(sorted[i].Commit.Author.Date).After(parseCommitDate(sorted[j].Commit.Author.Date))
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func parseCommitDate(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
