package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"log/slog"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Client talks to the TMDB v3 API. Both credential kinds are supported: v4
// read access tokens (JWTs, sent as a bearer header) and classic v3 keys
// (sent as an api_key query parameter). The kind is detected from the key's
// format at construction time.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	bearer     bool
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func NewClient(apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		logger:     logger,
		// v4 tokens are JWTs and always start with the base64 of {"alg".
		bearer: strings.HasPrefix(apiKey, "eyJ"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Genre is a genre tag attached to full movie details.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Movie is the full detail record for a single title.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Genres       []Genre `json:"genres"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
}

// PageEntry is one result row in a paged movie listing. Listings carry flat
// genre ids rather than the full tags of the detail endpoint.
type PageEntry struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	GenreIDs     []int64 `json:"genre_ids"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
}

// Page is one page of a movie listing.
type Page struct {
	Page       int         `json:"page"`
	Results    []PageEntry `json:"results"`
	TotalPages int         `json:"total_pages"`
}

// PersonEntry is one result row in a paged people listing.
type PersonEntry struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	KnownForDepartment string  `json:"known_for_department"`
	Popularity         float64 `json:"popularity"`
	ProfilePath        string  `json:"profile_path"`
}

// PersonPage is one page of a people listing.
type PersonPage struct {
	Page    int           `json:"page"`
	Results []PersonEntry `json:"results"`
}

// Credit is a single cast or crew credit of a person.
type Credit struct {
	MovieID   int    `json:"id"`
	Title     string `json:"title"`
	Character string `json:"character"`
	Job       string `json:"job"`
}

// Credits holds a person's movie credits.
type Credits struct {
	Cast []Credit `json:"cast"`
	Crew []Credit `json:"crew"`
}

// DiscoverQuery describes a genre-filtered discovery request.
type DiscoverQuery struct {
	GenreIDs     []int64
	SortBy       string
	MinVoteCount int
	Page         int
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	if !c.bearer {
		query.Set("api_key", c.apiKey)
	}

	u := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.bearer {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", slog.Any("error", err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("tmdb returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func pageQuery(page int) url.Values {
	return url.Values{"page": []string{strconv.Itoa(page)}}
}

// GetMovie fetches full details, including genre tags, for a single title.
func (c *Client) GetMovie(ctx context.Context, id int) (*Movie, error) {
	var movie Movie
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// Similar returns one page of titles similar to the given movie.
func (c *Client) Similar(ctx context.Context, id, page int) (*Page, error) {
	var result Page
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/similar", id), pageQuery(page), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Recommendations returns one page of TMDB's own recommendations for the
// given movie.
func (c *Client) Recommendations(ctx context.Context, id, page int) (*Page, error) {
	var result Page
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/recommendations", id), pageQuery(page), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Discover returns one page of movies matching a genre filter.
func (c *Client) Discover(ctx context.Context, q DiscoverQuery) (*Page, error) {
	genres := make([]string, len(q.GenreIDs))
	for i, id := range q.GenreIDs {
		genres[i] = strconv.FormatInt(id, 10)
	}

	query := url.Values{}
	query.Set("with_genres", strings.Join(genres, ","))
	query.Set("sort_by", q.SortBy)
	query.Set("vote_count.gte", strconv.Itoa(q.MinVoteCount))
	query.Set("page", strconv.Itoa(q.Page))

	var result Page
	if err := c.get(ctx, "/discover/movie", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// NowPlaying returns one page of movies currently in theaters.
func (c *Client) NowPlaying(ctx context.Context, page int) (*Page, error) {
	var result Page
	if err := c.get(ctx, "/movie/now_playing", pageQuery(page), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Popular returns one page of currently popular movies.
func (c *Client) Popular(ctx context.Context, page int) (*Page, error) {
	var result Page
	if err := c.get(ctx, "/movie/popular", pageQuery(page), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TrendingMovies returns one page of this week's trending movies.
func (c *Client) TrendingMovies(ctx context.Context, page int) (*Page, error) {
	var result Page
	if err := c.get(ctx, "/trending/movie/week", pageQuery(page), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TrendingPeople returns one page of this week's trending people.
func (c *Client) TrendingPeople(ctx context.Context, page int) (*PersonPage, error) {
	var result PersonPage
	if err := c.get(ctx, "/trending/person/week", pageQuery(page), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PersonMovieCredits returns all movie credits of a person.
func (c *Client) PersonMovieCredits(ctx context.Context, personID int) (*Credits, error) {
	var result Credits
	if err := c.get(ctx, fmt.Sprintf("/person/%d/movie_credits", personID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PosterURL builds a full image URL for a poster path.
func (c *Client) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/w500" + posterPath
}

// BackdropURL builds a full image URL for a backdrop path.
func (c *Client) BackdropURL(backdropPath string) string {
	if backdropPath == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/w780" + backdropPath
}

// ProfileURL builds a full image URL for a person's profile path.
func (c *Client) ProfileURL(profilePath string) string {
	if profilePath == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/w500" + profilePath
}
