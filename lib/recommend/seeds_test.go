package recommend

import (
	"testing"

	"github.com/moviematch/recommender/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSeedsAggregatesAcrossUsers(t *testing.T) {
	seeds := selectSeeds([]models.Interaction{
		{UserID: "u1", MovieID: 1, Rating: ptr(5)},
		{UserID: "u2", MovieID: 1, Rating: ptr(4)},
	}, 2)

	require.Len(t, seeds, 1)
	assert.Equal(t, 1, seeds[0].MovieID)
	assert.InDelta(t, 4.5, seeds[0].AvgRating, 1e-9)
	assert.InDelta(t, 1.0, seeds[0].Consensus, 1e-9)
}

func TestSelectSeedsIgnoresLowRatings(t *testing.T) {
	seeds := selectSeeds([]models.Interaction{
		{UserID: "u1", MovieID: 1, Rating: ptr(3.4)},
		{UserID: "u1", MovieID: 2, Rating: nil}, // defaults to 3
	}, 1)

	assert.Empty(t, seeds)
}

func TestSelectSeedsBlendFavorsConsensus(t *testing.T) {
	// Movie 1: liked by both users at 4.0 (consensus 1.0, blend 0.92).
	// Movie 2: loved by one user at 5.0 (consensus 0.5, blend 0.70).
	seeds := selectSeeds([]models.Interaction{
		{UserID: "u1", MovieID: 1, Rating: ptr(4)},
		{UserID: "u2", MovieID: 1, Rating: ptr(4)},
		{UserID: "u1", MovieID: 2, Rating: ptr(5)},
	}, 2)

	require.Len(t, seeds, 2)
	assert.Equal(t, 1, seeds[0].MovieID)
	assert.Equal(t, 2, seeds[1].MovieID)
}

func TestSelectSeedsCapsAtFifteen(t *testing.T) {
	var interactions []models.Interaction
	for i := 1; i <= 30; i++ {
		interactions = append(interactions, models.Interaction{
			UserID: "u1", MovieID: i, Rating: ptr(4),
		})
	}

	seeds := selectSeeds(interactions, 1)
	assert.Len(t, seeds, seedCount)
}
