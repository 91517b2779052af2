package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/nathanrivera/shopstream-backend/pkg/logger"
)

const defaultActivityRetention = 90 * 24 * time.Hour

type activityDeleter interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// activityRetentionJob trims old analytics events. The activity log is a
// signal, not an audit trail, so rows past the retention window go away.
type activityRetentionJob struct {
	logg      *logger.Logger
	deleter   activityDeleter
	retention time.Duration
	now       func() time.Time
}

// NewActivityRetentionJob constructs the activity retention job. A zero
// retention falls back to 90 days.
func NewActivityRetentionJob(logg *logger.Logger, deleter activityDeleter, retention time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if deleter == nil {
		return nil, fmt.Errorf("activity deleter required")
	}
	if retention <= 0 {
		retention = defaultActivityRetention
	}
	return &activityRetentionJob{
		logg:      logg,
		deleter:   deleter,
		retention: retention,
		now:       time.Now,
	}, nil
}

func (j *activityRetentionJob) Name() string { return "activity_retention" }

func (j *activityRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	removed, err := j.deleter.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete old activities: %w", err)
	}
	ctx = j.logg.WithField(ctx, "removed", removed)
	j.logg.Info(ctx, "trimmed old activity events")
	return nil
}
