package services

import (
	"testing"

	"ktrek/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultThresholds() TierThresholds {
	return TierThresholds{Bronze: 33, Silver: 66, Gold: 100}
}

func definition(id int64, identifier string, condition models.TriggerCondition) *models.RewardDefinition {
	triggerType := models.TriggerTaskTypeCompletion
	switch condition.(type) {
	case models.SetCondition:
		triggerType = models.TriggerTaskSetCompletion
	case models.TierCondition:
		triggerType = models.TriggerCategoryTier
	}

	return &models.RewardDefinition{
		ID:               id,
		RewardIdentifier: identifier,
		TriggerType:      triggerType,
		RawCondition:     models.EncodeCondition(condition),
		Rarity:           models.RarityCommon,
		RewardType:       models.RewardTypeBadge,
		Enabled:          true,
	}
}

func TestQualifiesTaskType(t *testing.T) {
	counts := map[models.TaskType]int{models.TaskTypeCheckin: 5}

	assert.True(t, qualifiesTaskType(models.TypeCondition{TaskType: models.TaskTypeCheckin, RequiredCount: 5}, counts))
	assert.True(t, qualifiesTaskType(models.TypeCondition{TaskType: models.TaskTypeCheckin, RequiredCount: 3}, counts))
	assert.False(t, qualifiesTaskType(models.TypeCondition{TaskType: models.TaskTypeCheckin, RequiredCount: 6}, counts))
	assert.False(t, qualifiesTaskType(models.TypeCondition{TaskType: models.TaskTypeQuiz, RequiredCount: 1}, counts))
	// a zero requirement never fires
	assert.False(t, qualifiesTaskType(models.TypeCondition{TaskType: models.TaskTypeCheckin, RequiredCount: 0}, counts))
}

func TestQualifiesTaskSet(t *testing.T) {
	completed := map[int64]bool{1: true, 2: true, 3: true}

	assert.True(t, qualifiesTaskSet(models.SetCondition{TaskIDs: []int64{1, 2, 3}}, completed))
	assert.True(t, qualifiesTaskSet(models.SetCondition{TaskIDs: []int64{2}}, completed))
	assert.False(t, qualifiesTaskSet(models.SetCondition{TaskIDs: []int64{1, 4}}, completed))
	assert.False(t, qualifiesTaskSet(models.SetCondition{TaskIDs: nil}, completed))
}

func TestQualifiesCategoryTier(t *testing.T) {
	thresholds := defaultThresholds()
	progress := &models.CategoryProgress{Category: "museum", CompletionPercentage: 70}

	assert.True(t, qualifiesCategoryTier(models.TierCondition{Category: "museum", Tier: models.TierBronze}, progress, thresholds))
	assert.True(t, qualifiesCategoryTier(models.TierCondition{Category: "museum", Tier: models.TierSilver}, progress, thresholds))
	assert.False(t, qualifiesCategoryTier(models.TierCondition{Category: "museum", Tier: models.TierGold}, progress, thresholds))

	// missing progress row means nothing completed yet
	assert.False(t, qualifiesCategoryTier(models.TierCondition{Category: "park", Tier: models.TierBronze}, nil, thresholds))
}

func TestQualifiesCategoryTierLatch(t *testing.T) {
	thresholds := defaultThresholds()
	progress := &models.CategoryProgress{
		Category:             "museum",
		CompletionPercentage: 70,
		BronzeUnlocked:       true,
	}

	// bronze stays silent once latched, silver still fires
	assert.False(t, qualifiesCategoryTier(models.TierCondition{Category: "museum", Tier: models.TierBronze}, progress, thresholds))
	assert.True(t, qualifiesCategoryTier(models.TierCondition{Category: "museum", Tier: models.TierSilver}, progress, thresholds))

	// latch holds even when recomputation drops the percentage back below
	progress.BronzeUnlocked = false
	progress.GoldUnlocked = true
	progress.CompletionPercentage = 20
	assert.False(t, qualifiesCategoryTier(models.TierCondition{Category: "museum", Tier: models.TierGold}, progress, thresholds))
	assert.False(t, qualifiesCategoryTier(models.TierCondition{Category: "museum", Tier: models.TierBronze}, progress, thresholds))
}

func TestQualifiesSkipsAwarded(t *testing.T) {
	snapshot := &evaluationSnapshot{
		countsByType: map[models.TaskType]int{models.TaskTypeCheckin: 10},
		awarded:      map[string]bool{"explorer_5": true},
		thresholds:   defaultThresholds(),
	}

	ok, tier, err := qualifies(definition(1, "explorer_5", models.TypeCondition{TaskType: models.TaskTypeCheckin, RequiredCount: 5}), snapshot)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, tier)

	ok, _, err = qualifies(definition(2, "explorer_10", models.TypeCondition{TaskType: models.TaskTypeCheckin, RequiredCount: 10}), snapshot)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQualifiesReturnsTierCondition(t *testing.T) {
	snapshot := &evaluationSnapshot{
		progress: map[string]*models.CategoryProgress{
			"museum": {Category: "museum", CompletionPercentage: 100},
		},
		awarded:    map[string]bool{},
		thresholds: defaultThresholds(),
	}

	ok, tier, err := qualifies(definition(3, "museum_gold", models.TierCondition{Category: "museum", Tier: models.TierGold}), snapshot)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, tier)
	assert.Equal(t, "museum", tier.Category)
	assert.Equal(t, models.TierGold, tier.Tier)
}

func TestQualifiesUnknownTriggerType(t *testing.T) {
	bad := &models.RewardDefinition{
		ID:               4,
		RewardIdentifier: "mystery",
		TriggerType:      models.TriggerType("streak"),
		RawCondition:     []byte(`{}`),
	}

	_, _, err := qualifies(bad, &evaluationSnapshot{awarded: map[string]bool{}})
	assert.ErrorIs(t, err, models.ErrUnknownTriggerType)
}

func TestPartitionDefinitionsConverges(t *testing.T) {
	definitions := []*models.RewardDefinition{
		definition(1, "explorer_5", models.TypeCondition{TaskType: models.TaskTypeCheckin, RequiredCount: 5}),
		definition(2, "explorer_10", models.TypeCondition{TaskType: models.TaskTypeCheckin, RequiredCount: 10}),
		definition(3, "museum_bronze", models.TierCondition{Category: "museum", Tier: models.TierBronze}),
	}

	snapshot := &evaluationSnapshot{
		countsByType: map[models.TaskType]int{models.TaskTypeCheckin: 7},
		progress: map[string]*models.CategoryProgress{
			"museum": {Category: "museum", CompletionPercentage: 40},
		},
		awarded:    map[string]bool{},
		thresholds: defaultThresholds(),
	}

	qualifying, skipped, err := partitionDefinitions(definitions, snapshot)
	require.NoError(t, err)
	require.Len(t, qualifying, 2)
	assert.Equal(t, "explorer_5", qualifying[0].Definition.RewardIdentifier)
	assert.Equal(t, "museum_bronze", qualifying[1].Definition.RewardIdentifier)
	assert.Empty(t, skipped)

	// granting moves identifiers into the ledger; a second pass over the
	// same state finds nothing new and reports the grants as skipped
	for _, candidate := range qualifying {
		snapshot.awarded[candidate.Definition.RewardIdentifier] = true
	}

	qualifying, skipped, err = partitionDefinitions(definitions, snapshot)
	require.NoError(t, err)
	assert.Empty(t, qualifying)
	assert.Equal(t, []string{"explorer_5", "museum_bronze"}, skipped)
}

func TestDefinitionAffectedByTask(t *testing.T) {
	task := &models.Task{ID: 7, Type: models.TaskTypeCheckin, Category: "museum"}

	cases := []struct {
		name       string
		definition *models.RewardDefinition
		affected   bool
	}{
		{"matching type", definition(1, "a", models.TypeCondition{TaskType: models.TaskTypeCheckin, RequiredCount: 1}), true},
		{"other type", definition(2, "b", models.TypeCondition{TaskType: models.TaskTypeQuiz, RequiredCount: 1}), false},
		{"set containing task", definition(3, "c", models.SetCondition{TaskIDs: []int64{5, 7}}), true},
		{"set without task", definition(4, "d", models.SetCondition{TaskIDs: []int64{5, 6}}), false},
		{"matching category", definition(5, "e", models.TierCondition{Category: "museum", Tier: models.TierBronze}), true},
		{"other category", definition(6, "f", models.TierCondition{Category: "park", Tier: models.TierBronze}), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			affected, err := definitionAffectedByTask(tc.definition, task)
			require.NoError(t, err)
			assert.Equal(t, tc.affected, affected)
		})
	}
}
