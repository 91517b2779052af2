package cron

import (
	"context"
	"fmt"

	"github.com/nathanrivera/shopstream-backend/pkg/logger"
)

type sessionPruner interface {
	PruneSessions() int
}

// sessionPruneJob drops lapsed entries from the visit dedup map so it stays
// bounded between restarts.
type sessionPruneJob struct {
	logg   *logger.Logger
	pruner sessionPruner
}

// NewSessionPruneJob constructs the session dedup prune job.
func NewSessionPruneJob(logg *logger.Logger, pruner sessionPruner) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pruner == nil {
		return nil, fmt.Errorf("session pruner required")
	}
	return &sessionPruneJob{logg: logg, pruner: pruner}, nil
}

func (j *sessionPruneJob) Name() string { return "session_prune" }

func (j *sessionPruneJob) Run(ctx context.Context) error {
	removed := j.pruner.PruneSessions()
	ctx = j.logg.WithField(ctx, "removed", removed)
	j.logg.Info(ctx, "pruned lapsed visit sessions")
	return nil
}
