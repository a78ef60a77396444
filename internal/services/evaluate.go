package services

import (
	"context"

	"ktrek/internal/datastore"
	"ktrek/internal/models"
	"ktrek/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceTrigger decides which reward definitions a user newly qualifies for.
// Evaluation is read-only: it loads a snapshot of the user's completions,
// awarded rewards and category progress, then runs pure predicates over it.
// Granting is the awarder's job.
type ServiceTrigger struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache

	serviceConfig *ServiceConfig
}

func NewServiceTrigger(container *do.Injector) (*ServiceTrigger, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceTrigger{container, postgresDB, readonlyPostgresDB, cache, readonlyCache, serviceConfig}, nil
}

// evaluationSnapshot is everything a trigger predicate may look at, loaded in
// one pass so every definition sees the same state.
type evaluationSnapshot struct {
	countsByType     map[models.TaskType]int
	completedTaskIDs map[int64]bool
	progress         map[string]*models.CategoryProgress
	awarded          map[string]bool
	thresholds       TierThresholds
}

func (service *ServiceTrigger) GetEnabledDefinitions(ctx context.Context) ([]*models.RewardDefinition, error) {
	callback := func() ([]*models.RewardDefinition, error) {
		return datastore.GetEnabledRewardDefinitions(ctx, service.readonlyPostgresDB)
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyRewardDefinitions(), CACHE_TTL_5_MINS, callback)
}

// Evaluate returns the definitions a user newly qualifies for after
// completing the given task, filtered to the definitions that completion
// could possibly affect. Definitions come back ordered by id, so award order
// is deterministic across concurrent completions.
func (service *ServiceTrigger) Evaluate(ctx context.Context, userID int64, task *models.Task) ([]models.QualifyingReward, error) {
	definitions, err := service.GetEnabledDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	relevant := make([]*models.RewardDefinition, 0, len(definitions))
	for _, definition := range definitions {
		affected, err := definitionAffectedByTask(definition, task)
		if err != nil {
			return nil, err
		}
		if affected {
			relevant = append(relevant, definition)
		}
	}

	qualifying, _, err := service.evaluateDefinitions(ctx, userID, relevant)
	return qualifying, err
}

// EvaluateAll runs every enabled definition against the user's current state
// and also reports the identifiers it skipped because the user already holds
// them. Reconciliation uses this to find rewards missed by crashed check-ins
// and to list what it left alone.
func (service *ServiceTrigger) EvaluateAll(ctx context.Context, userID int64) ([]models.QualifyingReward, []string, error) {
	definitions, err := service.GetEnabledDefinitions(ctx)
	if err != nil {
		return nil, nil, err
	}

	return service.evaluateDefinitions(ctx, userID, definitions)
}

func (service *ServiceTrigger) evaluateDefinitions(ctx context.Context, userID int64, definitions []*models.RewardDefinition) ([]models.QualifyingReward, []string, error) {
	if len(definitions) == 0 {
		return nil, nil, nil
	}

	snapshot, err := service.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	return partitionDefinitions(definitions, snapshot)
}

// partitionDefinitions splits definitions into the ones the user newly
// qualifies for and the identifiers skipped because they are already in the
// reward ledger. Definitions that simply don't qualify yet land in neither.
func partitionDefinitions(definitions []*models.RewardDefinition, snapshot *evaluationSnapshot) ([]models.QualifyingReward, []string, error) {
	var qualifying []models.QualifyingReward
	var skipped []string

	for _, definition := range definitions {
		if snapshot.awarded[definition.RewardIdentifier] {
			skipped = append(skipped, definition.RewardIdentifier)
			continue
		}

		ok, tier, err := qualifies(definition, snapshot)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			qualifying = append(qualifying, models.QualifyingReward{Definition: definition, Tier: tier})
		}
	}

	return qualifying, skipped, nil
}

func (service *ServiceTrigger) loadSnapshot(ctx context.Context, userID int64) (*evaluationSnapshot, error) {
	completions, err := datastore.GetCorrectCompletions(ctx, service.postgresDB, userID)
	if err != nil {
		return nil, err
	}

	awarded, err := datastore.GetAwardedIdentifiers(ctx, service.postgresDB, userID)
	if err != nil {
		return nil, err
	}

	progressRows, err := datastore.GetAllCategoryProgress(ctx, service.postgresDB, userID)
	if err != nil {
		return nil, err
	}

	snapshot := &evaluationSnapshot{
		countsByType:     map[models.TaskType]int{},
		completedTaskIDs: make(map[int64]bool, len(completions)),
		progress:         make(map[string]*models.CategoryProgress, len(progressRows)),
		awarded:          awarded,
		thresholds:       service.serviceConfig.GetTierThresholds(ctx),
	}

	for _, completion := range completions {
		snapshot.completedTaskIDs[completion.TaskID] = true
		if completion.Task != nil {
			snapshot.countsByType[completion.Task.Type]++
		}
	}

	for i := range progressRows {
		snapshot.progress[progressRows[i].Category] = &progressRows[i]
	}

	return snapshot, nil
}

// qualifies is the single gate a definition must pass: never re-award, then
// the per-trigger predicate. For category_tier triggers the decoded condition
// is returned so the awarder can flip the matching latch in the same
// transaction as the grant.
func qualifies(definition *models.RewardDefinition, snapshot *evaluationSnapshot) (bool, *models.TierCondition, error) {
	if snapshot.awarded[definition.RewardIdentifier] {
		return false, nil, nil
	}

	condition, err := definition.Condition()
	if err != nil {
		return false, nil, err
	}

	switch c := condition.(type) {
	case models.TypeCondition:
		return qualifiesTaskType(c, snapshot.countsByType), nil, nil
	case models.SetCondition:
		return qualifiesTaskSet(c, snapshot.completedTaskIDs), nil, nil
	case models.TierCondition:
		return qualifiesCategoryTier(c, snapshot.progress[c.Category], snapshot.thresholds), &c, nil
	}

	return false, nil, nil
}

func qualifiesTaskType(condition models.TypeCondition, countsByType map[models.TaskType]int) bool {
	if condition.RequiredCount <= 0 {
		return false
	}
	return countsByType[condition.TaskType] >= condition.RequiredCount
}

func qualifiesTaskSet(condition models.SetCondition, completedTaskIDs map[int64]bool) bool {
	if len(condition.TaskIDs) == 0 {
		return false
	}
	for _, taskID := range condition.TaskIDs {
		if !completedTaskIDs[taskID] {
			return false
		}
	}
	return true
}

// qualifiesCategoryTier checks the threshold against current progress. The
// latch check makes the trigger fire at most once per tier even when a later
// recomputation drops the percentage below the threshold and back up again.
func qualifiesCategoryTier(condition models.TierCondition, progress *models.CategoryProgress, thresholds TierThresholds) bool {
	if progress == nil {
		return false
	}
	if progress.TierUnlocked(condition.Tier) {
		return false
	}
	return progress.CompletionPercentage >= thresholds.For(condition.Tier)
}

// definitionAffectedByTask narrows evaluation to definitions whose predicate
// could change after completing this task.
func definitionAffectedByTask(definition *models.RewardDefinition, task *models.Task) (bool, error) {
	condition, err := definition.Condition()
	if err != nil {
		return false, err
	}

	switch c := condition.(type) {
	case models.TypeCondition:
		return c.TaskType == task.Type, nil
	case models.SetCondition:
		for _, taskID := range c.TaskIDs {
			if taskID == task.ID {
				return true, nil
			}
		}
		return false, nil
	case models.TierCondition:
		return c.Category == task.Category, nil
	}

	return false, nil
}
