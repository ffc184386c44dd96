package recommend

import (
	"context"
	"fmt"
	"math"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/moviematch/recommender/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// persistBatch hydrates catalog records for the top candidates, then swaps
// the group's batch for the leading ten in one transaction. Candidates whose
// metadata fetch fails stay ranked by id; the catalog import job fills the
// gap later.
func (r *Recommender) persistBatch(ctx context.Context, groupID string, top []scoredCandidate, now time.Time) (int, error) {
	if err := r.hydrate(ctx, top); err != nil {
		return 0, err
	}

	entries := top
	if len(entries) > batchSize {
		entries = entries[:batchSize]
	}

	rows := make([]models.GroupRecommendation, len(entries))
	for i, c := range entries {
		rows[i] = models.GroupRecommendation{
			ID:        uuid.NewString(),
			GroupID:   groupID,
			MovieID:   c.MovieID,
			Score:     math.Round(c.Weight*1000) / 1000,
			Position:  i + 1,
			CreatedAt: now,
			ExpiresAt: now.Add(batchTTL),
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupRecommendation{}).Error; err != nil {
			return fmt.Errorf("failed to delete prior batch: %w", err)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(rows), nil
}

// hydrate ensures catalog rows exist for the candidates about to be ranked.
// Only the database read is fatal; a missing movie that cannot be fetched is
// logged and left unhydrated.
func (r *Recommender) hydrate(ctx context.Context, top []scoredCandidate) error {
	ids := make([]int, len(top))
	for i, c := range top {
		ids[i] = c.MovieID
	}

	var existing []int
	if err := r.db.WithContext(ctx).Model(&models.Movie{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return fmt.Errorf("failed to check catalog: %w", err)
	}

	have := make(map[int]bool, len(existing))
	for _, id := range existing {
		have[id] = true
	}

	var rows []models.Movie
	for _, id := range ids {
		if have[id] {
			continue
		}

		movie, err := r.tmdb.GetMovie(ctx, id)
		if err != nil {
			r.logger.Warn("Failed to hydrate movie metadata",
				slog.Int("movie", id), slog.Any("error", err))
			continue
		}

		genreIDs := make(datatypes.JSONSlice[int64], len(movie.Genres))
		for i, g := range movie.Genres {
			genreIDs[i] = g.ID
		}

		rows = append(rows, models.Movie{
			ID:           movie.ID,
			Title:        movie.Title,
			Description:  movie.Overview,
			Release:      movie.ReleaseDate,
			PosterPath:   r.tmdb.PosterURL(movie.PosterPath),
			BackdropPath: r.tmdb.BackdropURL(movie.BackdropPath),
			GenreIDs:     genreIDs,
			Popularity:   movie.Popularity,
			VoteAverage:  movie.VoteAverage,
			VoteCount:    movie.VoteCount,
		})
	}

	if len(rows) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to upsert movies: %w", err)
	}
	return nil
}
