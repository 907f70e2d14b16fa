// Package redisledger provides a Redis-backed delay ledger. Entry
// expiry maps directly onto key TTLs, so lapsed delays disappear
// without a purge job.
package redisledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/campuskit/coursecycle/pkg/delay"
	"github.com/campuskit/coursecycle/pkg/models"
	redis "github.com/redis/go-redis/v9"
)

const (
	globalKeyPrefix   = "coursecycle:delay:global:"
	workflowKeyPrefix = "coursecycle:delay:wf:"
	scanBatchSize     = 256
)

// Ledger implements delay.Ledger on Redis.
type Ledger struct {
	client redis.UniversalClient
	logger *slog.Logger
	now    func() time.Time
}

var _ delay.Ledger = (*Ledger)(nil)

// NewLedger creates a Redis-backed delay ledger.
func NewLedger(client redis.UniversalClient, logger *slog.Logger) *Ledger {
	return &Ledger{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

func (l *Ledger) SetCourseDelayed(ctx context.Context, courseID int64, rollback bool, workflow *models.Workflow) error {
	var duration time.Duration
	if rollback {
		duration = workflow.RollbackDelay()
	} else {
		duration = workflow.FinishDelay()
	}

	if duration <= 0 {
		return nil
	}

	key := globalKey(courseID)
	if !workflow.DelayForAllWorkflows {
		key = workflowKey(workflow.ID, courseID)
	}

	delayedUntil := l.now().UTC().Add(duration)

	err := l.client.Set(ctx, key, delayedUntil.Unix(), duration).Err()
	if err != nil {
		return fmt.Errorf("failed to delay course %d: %w", courseID, err)
	}

	return nil
}

func (l *Ledger) CourseDelayedUntil(ctx context.Context, courseID int64) (time.Time, error) {
	return l.delayedUntil(ctx, globalKey(courseID))
}

func (l *Ledger) CourseDelayedUntilForWorkflow(ctx context.Context, courseID int64, workflowID string) (time.Time, error) {
	return l.delayedUntil(ctx, workflowKey(workflowID, courseID))
}

func (l *Ledger) GloballyDelayedCourses(ctx context.Context) ([]int64, error) {
	return l.scanCourseIDs(ctx, globalKeyPrefix+"*")
}

func (l *Ledger) DelayedCoursesForWorkflow(ctx context.Context, workflowID string) ([]int64, error) {
	return l.scanCourseIDs(ctx, workflowKeyPrefix+workflowID+":*")
}

func (l *Ledger) delayedUntil(ctx context.Context, key string) (time.Time, error) {
	value, err := l.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}

		return time.Time{}, fmt.Errorf("failed to read delay key %s: %w", key, err)
	}

	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed delay value for %s: %w", key, err)
	}

	return time.Unix(unix, 0).UTC(), nil
}

func (l *Ledger) scanCourseIDs(ctx context.Context, pattern string) ([]int64, error) {
	var (
		ids    []int64
		cursor uint64
	)

	for {
		keys, next, err := l.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan delay keys: %w", err)
		}

		for _, key := range keys {
			id, err := courseIDFromKey(key)
			if err != nil {
				l.logger.WarnContext(ctx, "skipping malformed delay key", "key", key, "error", err)

				continue
			}

			ids = append(ids, id)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return ids, nil
}

func globalKey(courseID int64) string {
	return globalKeyPrefix + strconv.FormatInt(courseID, 10)
}

func workflowKey(workflowID string, courseID int64) string {
	return workflowKeyPrefix + workflowID + ":" + strconv.FormatInt(courseID, 10)
}

func courseIDFromKey(key string) (int64, error) {
	separator := strings.LastIndex(key, ":")
	if separator < 0 {
		return 0, fmt.Errorf("no course id in key %q", key)
	}

	return strconv.ParseInt(key[separator+1:], 10, 64)
}
