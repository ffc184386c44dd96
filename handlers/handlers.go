package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/moviematch/recommender/lib/jobs"
	"github.com/moviematch/recommender/lib/lock"
	"github.com/moviematch/recommender/lib/recommend"
	"github.com/moviematch/recommender/models"
	"gorm.io/gorm"
)

// lockWait is how long a generate request waits on another run for the same
// group before reporting contention.
const lockWait = 5 * time.Second

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

type generateRequest struct {
	GroupID string `json:"groupId"`
}

type runStats struct {
	Users      int `json:"users"`
	Candidates int `json:"candidates"`
}

// HandleGenerate triggers the recommendation pipeline for a group. The run
// is serialized per group; data-absence conditions map to 400 so the client
// can correct its input, everything unexpected maps to 500.
func HandleGenerate(rec *recommend.Recommender, locks *lock.GroupLock) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body generateRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.GroupID == "" {
			writeError(w, http.StatusBadRequest, "groupId required")
			return
		}

		acquired, err := locks.TryLock(req.Context(), body.GroupID, lockWait)
		if err != nil {
			slog.Error("Failed to acquire group lock",
				slog.String("group", body.GroupID), slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if !acquired {
			writeError(w, http.StatusConflict, "Generation already in progress for group")
			return
		}
		defer func() {
			if err := locks.Unlock(body.GroupID); err != nil {
				slog.Error("Failed to release group lock",
					slog.String("group", body.GroupID), slog.Any("error", err))
			}
		}()

		result, err := rec.Generate(req.Context(), body.GroupID, time.Now())
		if err != nil {
			switch {
			case errors.Is(err, recommend.ErrNoInteractions):
				writeError(w, http.StatusBadRequest, "No interactions found for group")
			case errors.Is(err, recommend.ErrNoCandidates):
				writeError(w, http.StatusBadRequest, "No new movies to recommend")
			default:
				slog.Error("Failed to generate recommendations",
					slog.String("group", body.GroupID), slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
			}
			return
		}

		if result.UseExisting {
			writeJSON(w, http.StatusOK, map[string]any{
				"success":     true,
				"useExisting": true,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   result.Count,
			"stats":   runStats{Users: result.Users, Candidates: result.Candidates},
		})
	}
}

type recommendationEntry struct {
	MovieID   int           `json:"movieId"`
	Score     float64       `json:"score"`
	Position  int           `json:"position"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Movie     *models.Movie `json:"movie,omitempty"`
}

// HandleGetRecommendations serves a group's stored batch in rank order,
// joined with whatever catalog metadata exists.
func HandleGetRecommendations(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		groupID := chi.URLParam(req, "groupID")
		if groupID == "" {
			writeError(w, http.StatusBadRequest, "groupId required")
			return
		}

		var rows []models.GroupRecommendation
		if err := db.WithContext(req.Context()).
			Where("group_id = ?", groupID).
			Order("position asc").
			Find(&rows).Error; err != nil {
			slog.Error("Failed to load recommendations",
				slog.String("group", groupID), slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if len(rows) == 0 {
			writeError(w, http.StatusNotFound, "No recommendations for group")
			return
		}

		ids := make([]int, len(rows))
		for i, row := range rows {
			ids[i] = row.MovieID
		}
		var movies []models.Movie
		if err := db.WithContext(req.Context()).Where("id IN ?", ids).Find(&movies).Error; err != nil {
			slog.Error("Failed to load movie metadata",
				slog.String("group", groupID), slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		byID := make(map[int]*models.Movie, len(movies))
		for i := range movies {
			byID[movies[i].ID] = &movies[i]
		}

		entries := make([]recommendationEntry, len(rows))
		for i, row := range rows {
			entries[i] = recommendationEntry{
				MovieID:   row.MovieID,
				Score:     row.Score,
				Position:  row.Position,
				ExpiresAt: row.ExpiresAt,
				Movie:     byID[row.MovieID],
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"recommendations": entries,
		})
	}
}

// HandleCatalogImport runs the trending catalog import job.
func HandleCatalogImport(j *jobs.Jobs) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		count, err := j.ImportTrending(req.Context())
		if err != nil {
			slog.Error("Catalog import failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   count,
		})
	}
}

// HandleCrewSync runs the trending people and credits job.
func HandleCrewSync(j *jobs.Jobs) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		people, credits, err := j.SyncCrew(req.Context())
		if err != nil {
			slog.Error("Crew sync failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"people":  people,
			"credits": credits,
		})
	}
}

// HandleCleanup runs the stale-group and expired-batch cleanup job.
func HandleCleanup(j *jobs.Jobs) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		deleted, err := j.Cleanup(req.Context(), time.Now())
		if err != nil {
			slog.Error("Cleanup failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"deleted_count": deleted,
		})
	}
}
