package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsFor(total float64, users ...string) *genreStats {
	s := &genreStats{total: total, users: make(map[string]bool)}
	for _, u := range users {
		s.users[u] = true
	}
	return s
}

func TestRankGenresClearConsensusWins(t *testing.T) {
	// A: consensus 0.9, avg 3.6. B: consensus 0.5, avg 4.8. The consensus
	// gap (0.4) exceeds the tolerance, so A ranks above B despite the
	// lower average.
	stats := map[int64]*genreStats{
		1: statsFor(3.6*9, "u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8", "u9"),
		2: statsFor(4.8*5, "u1", "u2", "u3", "u4", "u5"),
	}

	ranked := rankGenres(stats, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(1), ranked[0].GenreID)
	assert.Equal(t, int64(2), ranked[1].GenreID)
}

func TestRankGenresFuzzyTieBreaksOnAvg(t *testing.T) {
	// A: consensus 0.6, avg 3.6. B: consensus 0.5, avg 4.8. The gap (0.1)
	// is inside the tolerance, so the higher average wins.
	stats := map[int64]*genreStats{
		1: statsFor(3.6*6, "u1", "u2", "u3", "u4", "u5", "u6"),
		2: statsFor(4.8*5, "u1", "u2", "u3", "u4", "u5"),
	}

	ranked := rankGenres(stats, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(2), ranked[0].GenreID)
	assert.Equal(t, int64(1), ranked[1].GenreID)
}

func TestRankGenresComputesAverages(t *testing.T) {
	stats := map[int64]*genreStats{
		7: statsFor(9, "u1", "u2"),
	}

	ranked := rankGenres(stats, 2)
	require.Len(t, ranked, 1)
	assert.Equal(t, 2, ranked[0].UserCount)
	assert.InDelta(t, 4.5, ranked[0].AvgScore, 1e-9)
}

func TestTopLikedFiltersAndCaps(t *testing.T) {
	rated := make([]ratedMovie, 0, 15)
	for i := 0; i < 12; i++ {
		rated = append(rated, ratedMovie{MovieID: i, Rating: 4.0})
	}
	rated = append(rated,
		ratedMovie{MovieID: 100, Rating: 3.4},
		ratedMovie{MovieID: 101, Rating: 5.0},
	)

	liked := topLiked(rated)
	require.Len(t, liked, topMoviesPerUser)
	assert.Equal(t, 101, liked[0].MovieID, "highest rating sorts first")
	for _, m := range liked {
		assert.GreaterOrEqual(t, m.Rating, likedThreshold)
	}
}

func TestTopLikedThresholdIsInclusive(t *testing.T) {
	liked := topLiked([]ratedMovie{{MovieID: 1, Rating: 3.5}})
	assert.Len(t, liked, 1)
}
