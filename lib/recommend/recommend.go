// Package recommend implements the group recommendation pipeline: it turns a
// group's raw interaction history into a ranked, persisted batch of movies
// nobody in the group has seen yet.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/moviematch/recommender/lib/tmdb"
	"github.com/moviematch/recommender/models"
	"gorm.io/gorm"
)

var (
	// ErrNoInteractions means the group has no history to recommend from.
	ErrNoInteractions = errors.New("no interactions found for group")
	// ErrNoCandidates means every discovery signal came back empty or seen.
	ErrNoCandidates = errors.New("no new movies to recommend")
)

const (
	// freshnessWindow is how long an existing batch suppresses a re-run.
	freshnessWindow = 6 * time.Hour
	// batchTTL is how long a persisted batch stays valid.
	batchTTL = 7 * 24 * time.Hour
	// batchSize is the number of entries in the final batch.
	batchSize = 10
	// hydrateSize is how many top candidates get catalog hydration.
	hydrateSize = 20
	// likedThreshold is the rating at or above which an item counts as liked.
	likedThreshold = 3.5
	// defaultRating substitutes for interactions recorded without a rating.
	defaultRating = 3.0
)

// Recommender runs the pipeline for one group at a time. All derived state
// lives on the stack of a single Generate call; the struct itself only
// carries collaborators and is safe to share.
type Recommender struct {
	db     *gorm.DB
	tmdb   *tmdb.Client
	logger *slog.Logger
}

func New(db *gorm.DB, tmdbClient *tmdb.Client, logger *slog.Logger) *Recommender {
	return &Recommender{
		db:     db,
		tmdb:   tmdbClient,
		logger: logger,
	}
}

// Result describes the outcome of one pipeline run.
type Result struct {
	UseExisting bool
	Count       int
	Users       int
	Candidates  int
}

// Generate computes and persists a recommendation batch for the group. The
// reference time is a parameter so the freshness window and expiry are
// deterministic under test. Store errors are fatal; individual catalog
// lookups are not.
func (r *Recommender) Generate(ctx context.Context, groupID string, now time.Time) (*Result, error) {
	fresh, err := r.hasFreshBatch(ctx, groupID, now)
	if err != nil {
		return nil, err
	}
	if fresh {
		r.logger.Info("Recent batch exists, skipping run", slog.String("group", groupID))
		return &Result{UseExisting: true}, nil
	}

	var interactions []models.Interaction
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Find(&interactions).Error; err != nil {
		return nil, fmt.Errorf("failed to load interactions: %w", err)
	}
	if len(interactions) == 0 {
		return nil, ErrNoInteractions
	}

	profiles, seen := buildProfiles(interactions)
	if len(profiles) == 0 {
		// Every record lacked a user id; nothing can be attributed.
		return nil, ErrNoInteractions
	}
	r.logger.Debug("Built preference profiles",
		slog.String("group", groupID),
		slog.Int("users", len(profiles)),
		slog.Int("seen", len(seen)))

	topGenres := r.topGenres(ctx, profiles)
	seeds := selectSeeds(interactions, len(profiles))
	r.logger.Debug("Derived group taste profile",
		slog.Int("top_genres", len(topGenres)),
		slog.Int("seeds", len(seeds)))

	set := newCandidateSet(seen)
	r.expandSeeds(ctx, seeds, set)
	if len(topGenres) > 0 {
		r.discoverByGenres(ctx, topGenres, set)
	}
	r.collectFallback(ctx, set)

	if set.size() == 0 {
		return nil, ErrNoCandidates
	}

	count, err := r.persistBatch(ctx, groupID, set.top(hydrateSize), now)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Generated recommendation batch",
		slog.String("group", groupID),
		slog.Int("count", count),
		slog.Int("candidates", set.size()))

	return &Result{
		Count:      count,
		Users:      len(profiles),
		Candidates: set.size(),
	}, nil
}

// hasFreshBatch reports whether a batch created inside the freshness window
// already exists for the group.
func (r *Recommender) hasFreshBatch(ctx context.Context, groupID string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupRecommendation{}).
		Where("group_id = ? AND created_at >= ?", groupID, now.Add(-freshnessWindow)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check for recent batch: %w", err)
	}
	return count > 0, nil
}
