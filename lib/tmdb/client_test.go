package tmdb

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthModeAPIKey(t *testing.T) {
	var gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.URL.Query().Get("api_key")
		_, _ = w.Write([]byte(`{"id": 42, "title": "Some Movie"}`))
	}))
	defer srv.Close()

	c := NewClient("5f947eefe9278165015da465d0af58c3", testLogger(), WithBaseURL(srv.URL))
	movie, err := c.GetMovie(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, 42, movie.ID)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "5f947eefe9278165015da465d0af58c3", gotKey)
}

func TestAuthModeBearer(t *testing.T) {
	var gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.URL.Query().Get("api_key")
		_, _ = w.Write([]byte(`{"id": 42, "title": "Some Movie"}`))
	}))
	defer srv.Close()

	c := NewClient("eyJhbGciOiJIUzI1NiJ9.payload.sig", testLogger(), WithBaseURL(srv.URL))
	_, err := c.GetMovie(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, "Bearer eyJhbGciOiJIUzI1NiJ9.payload.sig", gotAuth)
	assert.Empty(t, gotKey)
}

func TestDiscoverQuery(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"page": 2, "results": [{"id": 7, "genre_ids": [18, 35]}]}`))
	}))
	defer srv.Close()

	c := NewClient("key", testLogger(), WithBaseURL(srv.URL))
	page, err := c.Discover(context.Background(), DiscoverQuery{
		GenreIDs:     []int64{18, 35, 80},
		SortBy:       "vote_average.desc",
		MinVoteCount: 500,
		Page:         2,
	})
	require.NoError(t, err)

	assert.Equal(t, "/discover/movie", gotPath)
	assert.Equal(t, []string{"18,35,80"}, gotQuery["with_genres"])
	assert.Equal(t, []string{"vote_average.desc"}, gotQuery["sort_by"])
	assert.Equal(t, []string{"500"}, gotQuery["vote_count.gte"])
	assert.Equal(t, []string{"2"}, gotQuery["page"])
	require.Len(t, page.Results, 1)
	assert.Equal(t, []int64{18, 35}, page.Results[0].GenreIDs)
}

func TestNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("key", testLogger(), WithBaseURL(srv.URL))
	_, err := c.GetMovie(context.Background(), 99999)
	assert.Error(t, err)
}

func TestImageURLs(t *testing.T) {
	c := NewClient("key", testLogger())

	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", c.PosterURL("/abc.jpg"))
	assert.Equal(t, "https://image.tmdb.org/t/p/w780/abc.jpg", c.BackdropURL("/abc.jpg"))
	assert.Empty(t, c.PosterURL(""))
	assert.Empty(t, c.BackdropURL(""))
}
