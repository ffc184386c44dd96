package recommend

import (
	"sort"

	"github.com/moviematch/recommender/models"
)

const (
	// seedCount is how many seed movies the selector keeps.
	seedCount = 15
	// expansionSeedCount is how many of those drive candidate expansion.
	expansionSeedCount = 10
	// seedConsensusWeight and seedRatingWeight blend how broadly and how
	// highly a movie was rated into one seed score.
	seedConsensusWeight = 0.6
	seedRatingWeight    = 0.4
)

// seedMovie is a highly-and-broadly-liked movie used to query the catalog
// for related titles.
type seedMovie struct {
	MovieID   int
	AvgRating float64
	Consensus float64
}

// selectSeeds aggregates liked interactions across the whole group (not the
// per-user top lists the genre engine uses) into seed movies. Only movies
// whose average liked rating stays at or above the liked threshold survive;
// the rest are ordered by a blend of consensus and rating.
func selectSeeds(interactions []models.Interaction, userCount int) []seedMovie {
	type agg struct {
		total float64
		count int
	}
	byMovie := make(map[int]*agg)

	for _, i := range interactions {
		rating := effectiveRating(i)
		if rating < likedThreshold {
			continue
		}
		a, ok := byMovie[i.MovieID]
		if !ok {
			a = &agg{}
			byMovie[i.MovieID] = a
		}
		a.total += rating
		a.count++
	}

	seeds := make([]seedMovie, 0, len(byMovie))
	for movieID, a := range byMovie {
		avg := a.total / float64(a.count)
		if avg < likedThreshold {
			continue
		}
		seeds = append(seeds, seedMovie{
			MovieID:   movieID,
			AvgRating: avg,
			Consensus: float64(a.count) / float64(userCount),
		})
	}

	sort.Slice(seeds, func(i, j int) bool {
		if blendedScore(seeds[i]) != blendedScore(seeds[j]) {
			return blendedScore(seeds[i]) > blendedScore(seeds[j])
		}
		return seeds[i].MovieID < seeds[j].MovieID
	})

	if len(seeds) > seedCount {
		seeds = seeds[:seedCount]
	}
	return seeds
}

func blendedScore(s seedMovie) float64 {
	return seedConsensusWeight*s.Consensus + seedRatingWeight*(s.AvgRating/5)
}
