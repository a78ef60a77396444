package services

import (
	"context"

	"ktrek/internal/datastore"
	"ktrek/internal/models"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceReconcile replays the derivation chain for a user from the
// completion ledger: category progress, missed rewards, leaderboard. Safe to
// run at any time; every step is idempotent.
type ServiceReconcile struct {
	container  *do.Injector
	postgresDB *bun.DB

	serviceTrigger     *ServiceTrigger
	serviceAward       *ServiceAward
	serviceProgression *ServiceProgression
}

type ReconcileReport struct {
	UserID  int64               `json:"user_id"`
	Awarded []models.UserReward `json:"awarded"`
	Skipped []string            `json:"skipped"`
	Stats   *models.UserStats   `json:"stats"`
}

func NewServiceReconcile(container *do.Injector) (*ServiceReconcile, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
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

	return &ServiceReconcile{container, postgresDB, serviceTrigger, serviceAward, serviceProgression}, nil
}

func (service *ServiceReconcile) Reconcile(ctx context.Context, userID int64) (*ReconcileReport, error) {
	if err := service.serviceProgression.RecomputeAllCategoryProgress(ctx, userID); err != nil {
		return nil, err
	}

	qualifying, skipped, err := service.serviceTrigger.EvaluateAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{
		UserID:  userID,
		Awarded: []models.UserReward{},
		Skipped: append([]string{}, skipped...),
	}
	for _, candidate := range qualifying {
		outcome, err := service.serviceAward.Award(ctx, userID, candidate, "reconcile")
		if err == datastore.ErrAlreadyAwarded {
			// lost a race with a live check-in between evaluate and award
			report.Skipped = append(report.Skipped, candidate.Definition.RewardIdentifier)
			continue
		}
		if err != nil {
			return report, err
		}
		report.Awarded = append(report.Awarded, *outcome.Reward)
	}

	if err := service.serviceProgression.SyncLeaderboard(ctx, userID); err != nil {
		return report, err
	}

	stats, err := service.serviceProgression.GetUserStatsNoCache(ctx, userID)
	if err != nil {
		return report, err
	}
	report.Stats = stats

	return report, nil
}

// ReconcileAll walks every user in id order. Page size bounds memory, not
// transactions; each user reconciles independently.
func (service *ServiceReconcile) ReconcileAll(ctx context.Context) ([]*ReconcileReport, error) {
	var reports []*ReconcileReport

	limit := 200
	for offset := 0; ; offset += limit {
		ids, err := datastore.GetUserIDsPaged(ctx, service.postgresDB, limit, offset)
		if err != nil {
			return reports, err
		}

		for _, userID := range ids {
			report, err := service.Reconcile(ctx, userID)
			if err != nil {
				return reports, err
			}
			reports = append(reports, report)
		}

		if len(ids) < limit {
			break
		}
	}

	return reports, nil
}
