package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

type TriggerType string

const (
	TriggerTaskTypeCompletion TriggerType = "task_type_completion"
	TriggerTaskSetCompletion  TriggerType = "task_set_completion"
	TriggerCategoryTier       TriggerType = "category_tier"
)

type RewardType string

const (
	RewardTypeBadge    RewardType = "badge"
	RewardTypeTitle    RewardType = "title"
	RewardTypeCosmetic RewardType = "cosmetic"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// RewardDefinition is an admin-curated rule describing when a reward is
// earned. Conditions are stored as jsonb and decoded once into one of the
// three condition types below; evaluation never re-parses raw payloads.
type RewardDefinition struct {
	bun.BaseModel    `bun:"table:reward_definition"`
	ID               int64           `bun:"id,pk,autoincrement" json:"id"`
	RewardIdentifier string          `bun:"reward_identifier" json:"reward_identifier"`
	Name             string          `bun:"name" json:"name"`
	TriggerType      TriggerType     `bun:"trigger_type" json:"trigger_type"`
	RawCondition     json.RawMessage `bun:"condition,type:jsonb" json:"condition"`
	Rarity           Rarity          `bun:"rarity" json:"rarity"`
	RewardType       RewardType      `bun:"reward_type" json:"reward_type"`
	Enabled          bool            `bun:"enabled" json:"-"`

	decoded TriggerCondition `bun:"-" json:"-"`
}

type TriggerCondition interface {
	isTriggerCondition()
}

// TypeCondition qualifies after N distinct correct completions of a task type.
type TypeCondition struct {
	TaskType      TaskType `json:"task_type"`
	RequiredCount int      `json:"required_count"`
}

// SetCondition qualifies when every listed task id has a correct completion.
type SetCondition struct {
	TaskIDs []int64 `json:"task_ids"`
}

// TierCondition qualifies when a category's completion percentage crosses the
// tier threshold and the tier latch is not yet set.
type TierCondition struct {
	Category string `json:"category"`
	Tier     Tier   `json:"tier"`
}

func (TypeCondition) isTriggerCondition() {}
func (SetCondition) isTriggerCondition()  {}
func (TierCondition) isTriggerCondition() {}

var ErrUnknownTriggerType = errors.New("unknown trigger type")

// Condition returns the decoded trigger condition, decoding the jsonb payload
// on first use.
func (definition *RewardDefinition) Condition() (TriggerCondition, error) {
	if definition.decoded != nil {
		return definition.decoded, nil
	}

	var err error
	switch definition.TriggerType {
	case TriggerTaskTypeCompletion:
		var condition TypeCondition
		err = json.Unmarshal(definition.RawCondition, &condition)
		definition.decoded = condition
	case TriggerTaskSetCompletion:
		var condition SetCondition
		err = json.Unmarshal(definition.RawCondition, &condition)
		definition.decoded = condition
	case TriggerCategoryTier:
		var condition TierCondition
		err = json.Unmarshal(definition.RawCondition, &condition)
		definition.decoded = condition
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTriggerType, definition.TriggerType)
	}

	if err != nil {
		definition.decoded = nil
		return nil, err
	}

	return definition.decoded, nil
}

func EncodeCondition(condition TriggerCondition) json.RawMessage {
	b, _ := json.Marshal(condition)
	return b
}
