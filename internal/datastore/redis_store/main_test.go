package redis_store

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankItemsTieBreak(t *testing.T) {
	// ZREVRANGE hands back equal scores in reverse-lex member order ("12"
	// before "11"); serving order must put the lower user id first
	raw := []redis.Z{
		{Member: "12", Score: 300},
		{Member: "11", Score: 300},
		{Member: "7", Score: 500},
	}

	items := rankItems(raw)
	require.Len(t, items, 3)

	assert.Equal(t, int64(7), items[0].UserId)
	assert.Equal(t, 1, items[0].Rank)
	assert.Equal(t, int64(11), items[1].UserId)
	assert.Equal(t, 2, items[1].Rank)
	assert.Equal(t, int64(12), items[2].UserId)
	assert.Equal(t, 3, items[2].Rank)
}

func TestRankItemsOrdersByScore(t *testing.T) {
	raw := []redis.Z{
		{Member: "1", Score: 100},
		{Member: "2", Score: 400},
		{Member: "3", Score: 250},
	}

	items := rankItems(raw)
	require.Len(t, items, 3)

	assert.Equal(t, int64(2), items[0].UserId)
	assert.Equal(t, int64(3), items[1].UserId)
	assert.Equal(t, int64(1), items[2].UserId)
	for i, item := range items {
		assert.Equal(t, i+1, item.Rank)
	}
}

func TestRankItemsEmpty(t *testing.T) {
	assert.Empty(t, rankItems(nil))
}
