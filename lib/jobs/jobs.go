// Package jobs holds the scheduled maintenance tasks that surround the
// recommendation pipeline: keeping the catalog stocked with trending titles,
// linking trending people to catalog movies, and clearing out stale groups
// and expired batches.
package jobs

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/moviematch/recommender/lib/tmdb"
	"github.com/moviematch/recommender/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// trendingPeopleLimit caps how many trending people the crew sync keeps.
	trendingPeopleLimit = 30
	// staleGroupAge is how long a group may exist before cleanup removes it.
	staleGroupAge = 24 * time.Hour
)

type Jobs struct {
	db     *gorm.DB
	tmdb   *tmdb.Client
	logger *slog.Logger
}

func New(db *gorm.DB, tmdbClient *tmdb.Client, logger *slog.Logger) *Jobs {
	return &Jobs{
		db:     db,
		tmdb:   tmdbClient,
		logger: logger,
	}
}

// ImportTrending upserts this week's trending movies into the catalog.
func (j *Jobs) ImportTrending(ctx context.Context) (int, error) {
	page, err := j.tmdb.TrendingMovies(ctx, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch trending movies: %w", err)
	}
	if len(page.Results) == 0 {
		return 0, nil
	}

	rows := make([]models.Movie, len(page.Results))
	for i, m := range page.Results {
		rows[i] = models.Movie{
			ID:           m.ID,
			Title:        m.Title,
			Description:  m.Overview,
			Release:      m.ReleaseDate,
			PosterPath:   j.tmdb.PosterURL(m.PosterPath),
			BackdropPath: j.tmdb.BackdropURL(m.BackdropPath),
			GenreIDs:     datatypes.JSONSlice[int64](m.GenreIDs),
			Popularity:   m.Popularity,
			VoteAverage:  m.VoteAverage,
			VoteCount:    m.VoteCount,
		}
	}

	if err := j.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to upsert trending movies: %w", err)
	}

	j.logger.Info("Imported trending movies", slog.Int("count", len(rows)))
	return len(rows), nil
}

// SyncCrew upserts this week's trending people and links their credits to
// movies already in the catalog. A failed credit fetch skips that person.
func (j *Jobs) SyncCrew(ctx context.Context) (people, credits int, err error) {
	page, err := j.tmdb.TrendingPeople(ctx, 1)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch trending people: %w", err)
	}

	entries := page.Results
	if len(entries) > trendingPeopleLimit {
		entries = entries[:trendingPeopleLimit]
	}
	if len(entries) == 0 {
		return 0, 0, nil
	}

	rows := make([]models.Person, len(entries))
	for i, p := range entries {
		rows[i] = models.Person{
			ID:                 p.ID,
			Name:               p.Name,
			KnownForDepartment: p.KnownForDepartment,
			Popularity:         p.Popularity,
			ProfilePath:        j.tmdb.ProfileURL(p.ProfilePath),
		}
	}
	if err := j.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to upsert people: %w", err)
	}

	linked := 0
	for _, p := range entries {
		creditList, err := j.tmdb.PersonMovieCredits(ctx, p.ID)
		if err != nil {
			j.logger.Warn("Skipping credits for person",
				slog.Int("person", p.ID), slog.Any("error", err))
			continue
		}

		n, err := j.linkCredits(ctx, p.ID, creditList)
		if err != nil {
			return 0, 0, err
		}
		linked += n
	}

	j.logger.Info("Synced trending crew",
		slog.Int("people", len(rows)), slog.Int("credits", linked))
	return len(rows), linked, nil
}

func (j *Jobs) linkCredits(ctx context.Context, personID int, creditList *tmdb.Credits) (int, error) {
	movieIDs := make([]int, 0, len(creditList.Cast)+len(creditList.Crew))
	for _, c := range creditList.Cast {
		movieIDs = append(movieIDs, c.MovieID)
	}
	for _, c := range creditList.Crew {
		movieIDs = append(movieIDs, c.MovieID)
	}
	if len(movieIDs) == 0 {
		return 0, nil
	}

	// Only link movies the catalog actually holds; credits against unknown
	// titles would dangle.
	var known []int
	if err := j.db.WithContext(ctx).Model(&models.Movie{}).Where("id IN ?", movieIDs).Pluck("id", &known).Error; err != nil {
		return 0, fmt.Errorf("failed to check catalog for credits: %w", err)
	}
	inCatalog := make(map[int]bool, len(known))
	for _, id := range known {
		inCatalog[id] = true
	}

	var rows []models.MovieCredit
	for _, c := range creditList.Cast {
		if inCatalog[c.MovieID] {
			rows = append(rows, models.MovieCredit{PersonID: personID, MovieID: c.MovieID, Role: "cast", Detail: c.Character})
		}
	}
	for _, c := range creditList.Crew {
		if inCatalog[c.MovieID] {
			rows = append(rows, models.MovieCredit{PersonID: personID, MovieID: c.MovieID, Role: "crew", Detail: c.Job})
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err := j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("person_id = ?", personID).Delete(&models.MovieCredit{}).Error; err != nil {
			return fmt.Errorf("failed to clear prior credits: %w", err)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert credits: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Cleanup deletes groups older than a day together with their interactions
// and recommendations, plus any recommendation rows past their expiry.
func (j *Jobs) Cleanup(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-staleGroupAge)

	var stale []string
	if err := j.db.WithContext(ctx).Model(&models.Group{}).Where("created_at < ?", cutoff).Pluck("id", &stale).Error; err != nil {
		return 0, fmt.Errorf("failed to find stale groups: %w", err)
	}

	err := j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(stale) > 0 {
			if err := tx.Where("group_id IN ?", stale).Delete(&models.Interaction{}).Error; err != nil {
				return fmt.Errorf("failed to delete stale interactions: %w", err)
			}
			if err := tx.Where("group_id IN ?", stale).Delete(&models.GroupRecommendation{}).Error; err != nil {
				return fmt.Errorf("failed to delete stale recommendations: %w", err)
			}
			if err := tx.Where("id IN ?", stale).Delete(&models.Group{}).Error; err != nil {
				return fmt.Errorf("failed to delete stale groups: %w", err)
			}
		}
		if err := tx.Where("expires_at < ?", now).Delete(&models.GroupRecommendation{}).Error; err != nil {
			return fmt.Errorf("failed to delete expired recommendations: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	j.logger.Info("Cleaned up stale groups",
		slog.Int("deleted", len(stale)),
		slog.Time("cutoff", cutoff))
	return len(stale), nil
}
