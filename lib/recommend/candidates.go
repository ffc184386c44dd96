package recommend

import (
	"context"
	"sort"

	"log/slog"

	"github.com/moviematch/recommender/lib/tmdb"
)

const (
	resultsPerPage = 20

	// Per-seed expansion: each seed pulls pages from two related-title
	// endpoints, similarity weighted slightly above TMDB's own picks.
	expansionPages    = 2
	similarWeight     = 0.5
	recommendedWeight = 0.4

	// Precision discovery: top rated within the group's top three genres.
	precisionPages    = 3
	precisionGenres   = 3
	precisionWeight   = 0.3
	precisionMinVotes = 500

	// Breadth discovery: popular within the group's top two genres.
	breadthPages    = 2
	breadthGenres   = 2
	breadthWeight   = 0.25
	breadthMinVotes = 1000

	// Fallback signals run unconditionally so sparse groups still get a
	// non-empty candidate pool.
	nowPlayingWeight = 0.15
	nowPlayingPages  = 1
	popularWeight    = 0.10
	popularPages     = 2
)

// candidateSet accumulates additive weights per unseen movie. Adding a seen
// movie is a no-op; adding the same movie twice sums the weights.
type candidateSet struct {
	seen    map[int]bool
	weights map[int]float64
}

// scoredCandidate is one ranked entry of the set.
type scoredCandidate struct {
	MovieID int
	Weight  float64
}

func newCandidateSet(seen map[int]bool) *candidateSet {
	return &candidateSet{
		seen:    seen,
		weights: make(map[int]float64),
	}
}

func (s *candidateSet) add(movieID int, weight float64) {
	if s.seen[movieID] {
		return
	}
	s.weights[movieID] += weight
}

func (s *candidateSet) size() int {
	return len(s.weights)
}

// top returns the n heaviest candidates, best first. Weight ties break on
// movie id so the ranking is stable across runs.
func (s *candidateSet) top(n int) []scoredCandidate {
	ranked := make([]scoredCandidate, 0, len(s.weights))
	for id, w := range s.weights {
		ranked = append(ranked, scoredCandidate{MovieID: id, Weight: w})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		return ranked[i].MovieID < ranked[j].MovieID
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// positionWeight decays linearly with the zero-based rank across the
// concatenated pages of a signal, never below floor.
func positionWeight(rank, span int, floor float64) float64 {
	w := float64(span-rank) / float64(span)
	if w < floor {
		return floor
	}
	return w
}

// expandSeeds queries related-title endpoints for the strongest seeds and
// credits each result with a weight scaled by the seed's own standing in the
// group. A failed page just loses its contributions.
func (r *Recommender) expandSeeds(ctx context.Context, seeds []seedMovie, set *candidateSet) {
	if len(seeds) > expansionSeedCount {
		seeds = seeds[:expansionSeedCount]
	}

	span := expansionPages * resultsPerPage
	for _, seed := range seeds {
		endpoints := []struct {
			name   string
			factor float64
			fetch  func(context.Context, int, int) (*tmdb.Page, error)
		}{
			{"similar", similarWeight, r.tmdb.Similar},
			{"recommendations", recommendedWeight, r.tmdb.Recommendations},
		}

		for _, ep := range endpoints {
			for page := 1; page <= expansionPages; page++ {
				result, err := ep.fetch(ctx, seed.MovieID, page)
				if err != nil {
					r.logger.Warn("Skipping expansion page",
						slog.String("endpoint", ep.name),
						slog.Int("seed", seed.MovieID),
						slog.Int("page", page),
						slog.Any("error", err))
					continue
				}

				for idx, m := range result.Results {
					rank := (page-1)*resultsPerPage + idx
					weight := ep.factor * positionWeight(rank, span, 0.1) * seed.Consensus * (seed.AvgRating / 5)
					set.add(m.ID, weight)
				}
			}
		}
	}
}

// discoverByGenres runs the two genre-filtered discovery passes: a precision
// pass over the top three genres sorted by rating, scaled by how many of the
// result's own genres match, and a breadth pass over the top two genres
// sorted by popularity.
func (r *Recommender) discoverByGenres(ctx context.Context, topGenres []int64, set *candidateSet) {
	precision := topGenres
	if len(precision) > precisionGenres {
		precision = precision[:precisionGenres]
	}
	matchSet := make(map[int64]bool, len(precision))
	for _, id := range precision {
		matchSet[id] = true
	}

	span := precisionPages * resultsPerPage
	for page := 1; page <= precisionPages; page++ {
		result, err := r.tmdb.Discover(ctx, tmdb.DiscoverQuery{
			GenreIDs:     precision,
			SortBy:       "vote_average.desc",
			MinVoteCount: precisionMinVotes,
			Page:         page,
		})
		if err != nil {
			r.logger.Warn("Skipping precision discovery page",
				slog.Int("page", page), slog.Any("error", err))
			continue
		}

		denom := float64(min(precisionGenres, len(topGenres)))
		for idx, m := range result.Results {
			rank := (page-1)*resultsPerPage + idx
			matches := 0
			for _, g := range m.GenreIDs {
				if matchSet[g] {
					matches++
				}
			}
			set.add(m.ID, precisionWeight*positionWeight(rank, span, 0.1)*(float64(matches)/denom))
		}
	}

	breadth := topGenres
	if len(breadth) > breadthGenres {
		breadth = breadth[:breadthGenres]
	}

	span = breadthPages * resultsPerPage
	for page := 1; page <= breadthPages; page++ {
		result, err := r.tmdb.Discover(ctx, tmdb.DiscoverQuery{
			GenreIDs:     breadth,
			SortBy:       "popularity.desc",
			MinVoteCount: breadthMinVotes,
			Page:         page,
		})
		if err != nil {
			r.logger.Warn("Skipping breadth discovery page",
				slog.Int("page", page), slog.Any("error", err))
			continue
		}

		for idx, m := range result.Results {
			rank := (page-1)*resultsPerPage + idx
			set.add(m.ID, breadthWeight*positionWeight(rank, span, 0.1))
		}
	}
}

// collectFallback adds the generic now-playing and popular signals. These
// run regardless of seeds or genres, guaranteeing a non-empty pool whenever
// TMDB is reachable at all.
func (r *Recommender) collectFallback(ctx context.Context, set *candidateSet) {
	r.collectGeneric(ctx, "now_playing", r.tmdb.NowPlaying, nowPlayingWeight, nowPlayingPages, set)
	r.collectGeneric(ctx, "popular", r.tmdb.Popular, popularWeight, popularPages, set)
}

func (r *Recommender) collectGeneric(ctx context.Context, name string, fetch func(context.Context, int) (*tmdb.Page, error), baseWeight float64, pages int, set *candidateSet) {
	span := pages * resultsPerPage
	for page := 1; page <= pages; page++ {
		result, err := fetch(ctx, page)
		if err != nil {
			r.logger.Warn("Skipping fallback page",
				slog.String("endpoint", name),
				slog.Int("page", page),
				slog.Any("error", err))
			continue
		}

		for idx, m := range result.Results {
			rank := (page-1)*resultsPerPage + idx
			set.add(m.ID, baseWeight*positionWeight(rank, span, 0.05))
		}
	}
}
