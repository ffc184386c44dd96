package recommend

import (
	"context"
	"math"
	"sort"

	"log/slog"
)

const (
	// topMoviesPerUser caps how many of a user's liked movies feed the
	// genre analysis.
	topMoviesPerUser = 10
	// topGenreCount is how many genres make up the group's taste profile.
	topGenreCount = 5
	// consensusTolerance is the band within which two genres count as tied
	// on consensus and fall back to average score.
	consensusTolerance = 0.3
)

// genreStats accumulates support for one genre across the group.
type genreStats struct {
	total float64
	users map[string]bool
}

// genreScore is the ranked form of genreStats.
type genreScore struct {
	GenreID   int64
	Total     float64
	UserCount int
	AvgScore  float64
}

// topGenres derives the group's genre taste profile. Each user's top liked
// movies are looked up in the catalog one by one; every genre tag on a movie
// receives that user's rating. A failed lookup only loses that movie's
// contribution.
func (r *Recommender) topGenres(ctx context.Context, profiles map[string][]ratedMovie) []int64 {
	stats := make(map[int64]*genreStats)

	for userID, rated := range profiles {
		for _, pref := range topLiked(rated) {
			movie, err := r.tmdb.GetMovie(ctx, pref.MovieID)
			if err != nil {
				r.logger.Warn("Skipping genre contribution",
					slog.Int("movie", pref.MovieID),
					slog.Any("error", err))
				continue
			}

			for _, g := range movie.Genres {
				s, ok := stats[g.ID]
				if !ok {
					s = &genreStats{users: make(map[string]bool)}
					stats[g.ID] = s
				}
				s.total += pref.Rating
				s.users[userID] = true
			}
		}
	}

	ranked := rankGenres(stats, len(profiles))
	if len(ranked) > topGenreCount {
		ranked = ranked[:topGenreCount]
	}

	ids := make([]int64, len(ranked))
	for i, g := range ranked {
		ids[i] = g.GenreID
	}
	return ids
}

// topLiked filters a user's profile to liked movies, best first, capped at
// topMoviesPerUser.
func topLiked(rated []ratedMovie) []ratedMovie {
	liked := make([]ratedMovie, 0, len(rated))
	for _, m := range rated {
		if m.Rating >= likedThreshold {
			liked = append(liked, m)
		}
	}

	sort.SliceStable(liked, func(i, j int) bool {
		return liked[i].Rating > liked[j].Rating
	})

	if len(liked) > topMoviesPerUser {
		liked = liked[:topMoviesPerUser]
	}
	return liked
}

// rankGenres orders genres by fuzzy consensus: a genre most of the group
// supports beats a genre few support, but within the tolerance band the
// higher average score wins. Broadly liked beats narrowly loved.
func rankGenres(stats map[int64]*genreStats, userCount int) []genreScore {
	scores := make([]genreScore, 0, len(stats))
	for id, s := range stats {
		scores = append(scores, genreScore{
			GenreID:   id,
			Total:     s.total,
			UserCount: len(s.users),
			AvgScore:  s.total / float64(len(s.users)),
		})
	}

	// Fix an id order first so map iteration cannot influence the result.
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].GenreID < scores[j].GenreID
	})

	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		aConsensus := float64(a.UserCount) / float64(userCount)
		bConsensus := float64(b.UserCount) / float64(userCount)
		if math.Abs(aConsensus-bConsensus) > consensusTolerance {
			return aConsensus > bConsensus
		}
		return a.AvgScore > b.AvgScore
	})

	return scores
}
