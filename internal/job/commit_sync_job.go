package job

import (
	"context"

	"github.com/Pallavikumarimdb/VexonAI/internal/service"
)

// CommitSyncJob periodically pulls new commits for every project so the
// dashboard stays fresh without a user-triggered sync.
type CommitSyncJob struct {
	commits *service.CommitService
}

func NewCommitSyncJob(commits *service.CommitService) *CommitSyncJob {
	return &CommitSyncJob{commits: commits}
}

func (j *CommitSyncJob) Name() string {
	return "commit_sync"
}

func (j *CommitSyncJob) Run(ctx context.Context) error {
	if j.commits == nil {
		return nil
	}
	return j.commits.SyncAll(ctx)
}
