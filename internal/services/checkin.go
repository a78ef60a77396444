package services

import (
	"context"
	"database/sql"

	"ktrek/internal/datastore"
	"ktrek/internal/interfaces"
	"ktrek/internal/models"

	"github.com/go-redis/redis_rate/v10"
	"github.com/go-redsync/redsync/v4"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/limiter"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceCheckin runs the full pipeline for one check-in attempt: rate limit,
// per-user lock, proof verification, completion insert, progress
// recomputation, trigger evaluation and reward awarding.
type ServiceCheckin struct {
	container  *do.Injector
	postgresDB *bun.DB
	rs         *redsync.Redsync
	limiter    interfaces.Limiter

	serviceConfig      *ServiceConfig
	serviceTask        *ServiceTask
	serviceTrigger     *ServiceTrigger
	serviceAward       *ServiceAward
	serviceProgression *ServiceProgression
}

func NewServiceCheckin(container *do.Injector) (*ServiceCheckin, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	limiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	serviceTask, err := do.Invoke[*ServiceTask](container)
	if err != nil {
		return nil, err
	}

	serviceTrigger, err := do.Invoke[*ServiceTrigger](container)
	if err != nil {
		return nil, err
	}

	serviceAward, err := do.Invoke[*ServiceAward](container)
	if err != nil {
		return nil, err
	}

	serviceProgression, err := do.Invoke[*ServiceProgression](container)
	if err != nil {
		return nil, err
	}

	return &ServiceCheckin{container, postgresDB, rs, limiter, serviceConfig, serviceTask, serviceTrigger, serviceAward, serviceProgression}, nil
}

// CheckIn processes one attempt. A failed verification is a successful call:
// the result carries ok=false with the reason and measured distance so the
// client can guide the user closer. Errors are reserved for rejected attempts
// (rate limit, unknown task, duplicate completion) and infrastructure
// failures.
func (service *ServiceCheckin) CheckIn(ctx context.Context, user *models.User, taskID int64, proof *models.CheckinProof) (*models.CheckinResult, error) {
	rate, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_CHECKIN_RATE_LIMIT_PER_MIN, DEFAULT_CHECKIN_RATE_LIMIT_PER_MIN)
	err := service.limiter.Allow(ctx, LimitKeyUserCheckin(user.ID), redis_rate.PerMinute(rate))
	if err != nil {
		if err.Error() == limiter.ErrRateLimited.Error() {
			return nil, errorx.Wrap(err, errorx.RateLimiting)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	// one in-flight check-in per user; everything after the completion
	// insert is idempotent anyway, the lock just keeps the common path tidy
	mutex := service.rs.NewMutex(LockKeyUserCheckin(user.ID))
	if err := mutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrCheckinLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	task, err := service.serviceTask.GetTask(ctx, taskID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errorx.Wrap(err, errorx.NotExist)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if !task.Enabled {
		return nil, errorx.Wrap(sql.ErrNoRows, errorx.NotExist)
	}

	verification := VerifyProof(task, proof, service.serviceConfig.GetGPSMaxAccuracy(ctx))
	if !verification.OK {
		return &models.CheckinResult{Verification: verification}, nil
	}

	completion := &models.TaskCompletion{
		UserID:    user.ID,
		TaskID:    task.ID,
		Correct:   true,
		DistanceM: verification.DistanceM,
		AccuracyM: verification.AccuracyM,
		QRToken:   proof.QRToken,
	}
	err = datastore.InsertTaskCompletion(ctx, service.postgresDB, completion, task.EP)
	if err == datastore.ErrAlreadyCompleted {
		return nil, errorx.Wrap(err, errorx.Invalid)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	result := &models.CheckinResult{
		Verification: verification,
		Completion:   completion,
		NewRewards:   []models.UserReward{},
	}

	// best-effort from here on: the completion is durable, reconciliation
	// re-derives anything a crash below this point leaves behind
	if _, err := service.serviceProgression.RecomputeCategoryProgress(ctx, user.ID, task.Category); err != nil {
		return result, errorx.Wrap(err, errorx.Service)
	}

	qualifying, err := service.serviceTrigger.Evaluate(ctx, user.ID, task)
	if err != nil {
		return result, errorx.Wrap(err, errorx.Service)
	}

	granted, stats, err := service.serviceAward.AwardAll(ctx, user.ID, qualifying, task.Slug)
	if len(granted) > 0 {
		result.NewRewards = granted
	}
	if err != nil {
		return result, errorx.Wrap(err, errorx.Service)
	}

	if err := service.serviceProgression.SyncLeaderboard(ctx, user.ID); err != nil {
		return result, errorx.Wrap(err, errorx.Service)
	}

	if stats == nil {
		stats, err = service.serviceProgression.GetUserStatsNoCache(ctx, user.ID)
		if err != nil {
			return result, errorx.Wrap(err, errorx.Service)
		}
	}
	result.Stats = stats

	return result, nil
}
