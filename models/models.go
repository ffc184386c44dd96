package models

import (
	"time"

	"gorm.io/datatypes"
)

// Interaction is a recorded user action on a movie within a group. It is the
// source of truth for the recommendation pipeline and is never modified once
// written. A nil Rating means the user interacted without rating explicitly.
type Interaction struct {
	ID              uint   `gorm:"primaryKey"`
	GroupID         string `gorm:"index"`
	UserID          string
	MovieID         int
	Rating          *float64
	InteractionType string
	CreatedAt       time.Time
}

// Movie is a catalog record keyed by its TMDB id. Rows are written by the
// trending import job and by candidate hydration during ranking.
type Movie struct {
	ID           int `gorm:"primaryKey"`
	Title        string
	Description  string
	Release      string
	PosterPath   string
	BackdropPath string
	GenreIDs     datatypes.JSONSlice[int64]
	Popularity   float64
	VoteAverage  float64
	VoteCount    int
}

// GroupRecommendation is one entry of a group's ranked batch. A group has at
// most one batch at a time; replacing it swaps all rows for the group.
type GroupRecommendation struct {
	ID        string `gorm:"primaryKey"`
	GroupID   string `gorm:"index"`
	MovieID   int
	Score     float64
	Position  int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Group exists so the cleanup job can find stale groups by creation time.
type Group struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
}

// Person is a trending cast or crew member pulled from TMDB.
type Person struct {
	ID                 int `gorm:"primaryKey"`
	Name               string
	KnownForDepartment string
	Popularity         float64
	ProfilePath        string
}

// MovieCredit links a person to a movie already present in the catalog.
// Role is "cast" or "crew"; Detail carries the character or job name.
type MovieCredit struct {
	ID       uint   `gorm:"primaryKey"`
	PersonID int    `gorm:"index"`
	MovieID  int    `gorm:"index"`
	Role     string
	Detail   string
}
