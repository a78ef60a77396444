package services

import (
	"context"

	"ktrek/internal/datastore"
	"ktrek/internal/models"
	"ktrek/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceAward turns a qualifying definition into a granted reward. The heavy
// lifting lives in the datastore transaction; this layer resolves the XP
// value for the rarity and the level curve, then invalidates what the grant
// made stale.
type ServiceAward struct {
	container  *do.Injector
	postgresDB *bun.DB
	cache      caching.Cache

	serviceConfig *ServiceConfig
}

func NewServiceAward(container *do.Injector) (*ServiceAward, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceAward{container, postgresDB, cache, serviceConfig}, nil
}

// Award grants one reward to the user, crediting XP and recomputing level in
// the same transaction. A definition already present in the user's ledger
// comes back as datastore.ErrAlreadyAwarded; callers racing over the same
// qualifying reward treat that as "someone else won", not a failure.
func (service *ServiceAward) Award(ctx context.Context, userID int64, qualifying models.QualifyingReward, source string) (*models.AwardOutcome, error) {
	definition := qualifying.Definition
	xp := service.serviceConfig.RarityXP(ctx, definition.Rarity)
	baseXP, maxLevel := service.serviceConfig.GetLevelCurve(ctx)

	reward := &models.UserReward{
		UserID:           userID,
		RewardIdentifier: definition.RewardIdentifier,
		RewardType:       definition.RewardType,
		Rarity:           definition.Rarity,
		XP:               xp,
		Source:           source,
	}

	levelFor := func(totalXP int) int {
		return RecomputeLevel(totalXP, baseXP, maxLevel)
	}

	stats, err := datastore.AwardReward(ctx, service.postgresDB, reward, levelFor, qualifying.Tier)
	if err != nil {
		return nil, err
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyUserRewards(userID))

	return &models.AwardOutcome{
		Granted: true,
		XPDelta: xp,
		Reward:  reward,
		Stats:   stats,
	}, nil
}

// AwardAll grants every qualifying reward in definition order, skipping the
// ones another worker already granted. It reports only what this call
// actually granted.
func (service *ServiceAward) AwardAll(ctx context.Context, userID int64, qualifying []models.QualifyingReward, source string) ([]models.UserReward, *models.UserStats, error) {
	var granted []models.UserReward
	var stats *models.UserStats

	for _, candidate := range qualifying {
		outcome, err := service.Award(ctx, userID, candidate, source)
		if err == datastore.ErrAlreadyAwarded {
			continue
		}
		if err != nil {
			return granted, stats, err
		}

		granted = append(granted, *outcome.Reward)
		stats = outcome.Stats
	}

	return granted, stats, nil
}
