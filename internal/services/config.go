package services

import (
	"context"
	"fmt"
	"strconv"

	"ktrek/internal/datastore"
	"ktrek/internal/models"
	"ktrek/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// TierThresholds are the category completion percentages that unlock each
// tier. Policy values; must stay monotonic bronze < silver < gold.
type TierThresholds struct {
	Bronze float64
	Silver float64
	Gold   float64
}

func (thresholds TierThresholds) For(tier models.Tier) float64 {
	switch tier {
	case models.TierBronze:
		return thresholds.Bronze
	case models.TierSilver:
		return thresholds.Silver
	case models.TierGold:
		return thresholds.Gold
	}
	return 101 // unreachable threshold for unknown tiers
}

type ServiceConfig struct {
	container          *do.Injector
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceConfig(container *do.Injector) (*ServiceConfig, error) {
	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	readOnlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	service := &ServiceConfig{container, readonlyPostgresDB, cache, readOnlyCache}

	// one explicit schema check at startup instead of probing per request
	if err := service.checkSchemaVersion(context.Background()); err != nil {
		return nil, err
	}

	return service, nil
}

func (service *ServiceConfig) checkSchemaVersion(ctx context.Context) error {
	config, err := datastore.GetConfigByKey(ctx, service.readonlyPostgresDB, CONFIG_SCHEMA_VERSION)
	if err != nil {
		return fmt.Errorf("schema version missing, run migrate first: %w", err)
	}

	if config.Value != SCHEMA_VERSION {
		return fmt.Errorf("schema version mismatch: have %s, want %s", config.Value, SCHEMA_VERSION)
	}

	return nil
}

func (service *ServiceConfig) GetStringConfig(ctx context.Context, key string, defaultValue string) (string, error) {
	callback := func() (string, error) {
		config, err := datastore.GetConfigByKey(ctx, service.readonlyPostgresDB, key)
		if err != nil {
			return defaultValue, err
		}
		return config.Value, nil
	}

	value, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyConfig(key), CACHE_TTL_5_MINS, callback)
	if err != nil {
		return defaultValue, err
	}

	return value, nil
}

func (service *ServiceConfig) GetIntConfig(ctx context.Context, key string, defaultValue int) (int, error) {
	callback := func() (int, error) {
		config, err := datastore.GetConfigByKey(ctx, service.readonlyPostgresDB, key)
		if err != nil {
			return defaultValue, err
		}

		intValue, err := strconv.Atoi(config.Value)
		if err != nil {
			return defaultValue, err
		}

		return intValue, nil
	}

	value, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyConfig(key), CACHE_TTL_5_MINS, callback)
	if err != nil {
		return defaultValue, err
	}

	return value, nil
}

func (service *ServiceConfig) RarityXP(ctx context.Context, rarity models.Rarity) int {
	switch rarity {
	case models.RarityCommon:
		xp, _ := service.GetIntConfig(ctx, CONFIG_XP_COMMON, DEFAULT_XP_COMMON)
		return xp
	case models.RarityRare:
		xp, _ := service.GetIntConfig(ctx, CONFIG_XP_RARE, DEFAULT_XP_RARE)
		return xp
	case models.RarityEpic:
		xp, _ := service.GetIntConfig(ctx, CONFIG_XP_EPIC, DEFAULT_XP_EPIC)
		return xp
	case models.RarityLegendary:
		xp, _ := service.GetIntConfig(ctx, CONFIG_XP_LEGENDARY, DEFAULT_XP_LEGENDARY)
		return xp
	}

	xp, _ := service.GetIntConfig(ctx, CONFIG_XP_COMMON, DEFAULT_XP_COMMON)
	return xp
}

func (service *ServiceConfig) GetTierThresholds(ctx context.Context) TierThresholds {
	bronze, _ := service.GetIntConfig(ctx, CONFIG_TIER_BRONZE_PERCENT, DEFAULT_TIER_BRONZE_PERCENT)
	silver, _ := service.GetIntConfig(ctx, CONFIG_TIER_SILVER_PERCENT, DEFAULT_TIER_SILVER_PERCENT)
	gold, _ := service.GetIntConfig(ctx, CONFIG_TIER_GOLD_PERCENT, DEFAULT_TIER_GOLD_PERCENT)

	return TierThresholds{Bronze: float64(bronze), Silver: float64(silver), Gold: float64(gold)}
}

func (service *ServiceConfig) GetGPSMaxAccuracy(ctx context.Context) float64 {
	accuracy, _ := service.GetIntConfig(ctx, CONFIG_GPS_MAX_ACCURACY_M, DEFAULT_GPS_MAX_ACCURACY_M)
	return float64(accuracy)
}

func (service *ServiceConfig) GetLevelCurve(ctx context.Context) (baseXP int, maxLevel int) {
	baseXP, _ = service.GetIntConfig(ctx, CONFIG_LEVEL_BASE_XP, DEFAULT_LEVEL_BASE_XP)
	maxLevel, _ = service.GetIntConfig(ctx, CONFIG_LEVEL_MAX, DEFAULT_LEVEL_MAX)
	return baseXP, maxLevel
}
