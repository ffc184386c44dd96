package recommend

import "github.com/moviematch/recommender/models"

// ratedMovie is one entry of a user's preference profile.
type ratedMovie struct {
	MovieID int
	Rating  float64
}

// effectiveRating substitutes the neutral default for interactions recorded
// without an explicit rating.
func effectiveRating(i models.Interaction) float64 {
	if i.Rating == nil {
		return defaultRating
	}
	return *i.Rating
}

// buildProfiles groups the interactions into per-user rated-movie lists and
// computes the group's seen set. The seen set covers every movie anyone in
// the group interacted with, regardless of rating: the pipeline must never
// recommend a movie the group already knows. Records without a user id
// cannot be attributed and are dropped from profiles, though their movies
// still count as seen.
func buildProfiles(interactions []models.Interaction) (map[string][]ratedMovie, map[int]bool) {
	profiles := make(map[string][]ratedMovie)
	seen := make(map[int]bool)

	for _, i := range interactions {
		if i.MovieID != 0 {
			seen[i.MovieID] = true
		}
		if i.UserID == "" {
			continue
		}
		profiles[i.UserID] = append(profiles[i.UserID], ratedMovie{
			MovieID: i.MovieID,
			Rating:  effectiveRating(i),
		})
	}

	return profiles, seen
}
