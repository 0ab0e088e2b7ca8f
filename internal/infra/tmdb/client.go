// Package tmdb is the themoviedb.org metadata client. Details are cached
// with a TTL so quiz starts and daily jobs do not hammer the API.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"movie-trivia-bot/internal/domain"
)

const (
	defaultBaseURL   = "https://api.themoviedb.org/3"
	defaultImageBase = "https://image.tmdb.org/t/p/w500"
	defaultTTL       = 10 * time.Minute
)

// Client implements app.MetadataLookup against the TMDB v3 API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	imageBase  string
	apiKey     string
	ttl        time.Duration
	clock      func() time.Time
	sf         singleflight.Group
	rnd        *rand.Rand
	rndMu      sync.Mutex

	mu    sync.RWMutex
	cache map[int64]cachedDetail
}

type cachedDetail struct {
	detail    domain.MovieDetail
	expiresAt time.Time
}

// ClientOption tweaks a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API host (tests).
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = base }
}

// WithImageBase overrides the poster host.
func WithImageBase(base string) ClientOption {
	return func(c *Client) { c.imageBase = base }
}

// WithTTL overrides the detail cache TTL.
func WithTTL(ttl time.Duration) ClientOption {
	return func(c *Client) { c.ttl = ttl }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		imageBase:  defaultImageBase,
		apiKey:     apiKey,
		ttl:        defaultTTL,
		clock:      time.Now,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:      make(map[int64]cachedDetail),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type movieResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
}

type resultsPage struct {
	Results []movieResult `json:"results"`
}

type movieDetailResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Overview string `json:"overview"`
	Genres   []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Credits struct {
		Cast []struct {
			Name string `json:"name"`
		} `json:"cast"`
	} `json:"credits"`
}

// SearchMovie returns the best match for a free-text query.
func (c *Client) SearchMovie(ctx context.Context, query string) (domain.MovieSummary, error) {
	var page resultsPage
	if err := c.get(ctx, "/search/movie", url.Values{"query": {query}}, &page); err != nil {
		return domain.MovieSummary{}, err
	}
	if len(page.Results) == 0 {
		return domain.MovieSummary{}, domain.ErrMovieNotFound
	}
	return toSummary(page.Results[0]), nil
}

// MovieDetails fetches genres, cast, and overview for a movie. Results are
// cached with a jittered TTL; concurrent misses collapse into one request.
func (c *Client) MovieDetails(ctx context.Context, id int64) (domain.MovieDetail, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.detail, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.detail, nil
		}
		c.mu.RUnlock()

		var resp movieDetailResponse
		path := fmt.Sprintf("/movie/%d", id)
		if err := c.get(ctx, path, url.Values{"append_to_response": {"credits"}}, &resp); err != nil {
			return domain.MovieDetail{}, err
		}

		detail := domain.MovieDetail{
			ID:       resp.ID,
			Title:    resp.Title,
			Overview: resp.Overview,
		}
		for _, g := range resp.Genres {
			detail.Genres = append(detail.Genres, g.Name)
		}
		for _, member := range resp.Credits.Cast {
			detail.Cast = append(detail.Cast, member.Name)
		}

		c.mu.Lock()
		c.cache[id] = cachedDetail{detail: detail, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return detail, nil
	})
	if err != nil {
		return domain.MovieDetail{}, err
	}
	return result.(domain.MovieDetail), nil
}

// SimilarMovies lists titles related to a movie.
func (c *Client) SimilarMovies(ctx context.Context, id int64) ([]domain.MovieSummary, error) {
	var page resultsPage
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/similar", id), nil, &page); err != nil {
		return nil, err
	}
	return toSummaries(page.Results), nil
}

// UpcomingMovies lists upcoming releases.
func (c *Client) UpcomingMovies(ctx context.Context) ([]domain.MovieSummary, error) {
	var page resultsPage
	if err := c.get(ctx, "/movie/upcoming", url.Values{"language": {"en-US"}}, &page); err != nil {
		return nil, err
	}
	return toSummaries(page.Results), nil
}

// DiscoverByGenre returns the most popular current movie for a genre id.
func (c *Client) DiscoverByGenre(ctx context.Context, genreID int) (domain.MovieSummary, error) {
	values := url.Values{
		"with_genres": {strconv.Itoa(genreID)},
		"sort_by":     {"popularity.desc"},
	}
	var page resultsPage
	if err := c.get(ctx, "/discover/movie", values, &page); err != nil {
		return domain.MovieSummary{}, err
	}
	if len(page.Results) == 0 {
		return domain.MovieSummary{}, domain.ErrMovieNotFound
	}
	return toSummary(page.Results[0]), nil
}

// PosterURL expands a TMDB poster path into a full image URL.
func (c *Client) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return c.imageBase + path
}

func (c *Client) get(ctx context.Context, path string, values url.Values, out any) error {
	if values == nil {
		values = url.Values{}
	}
	values.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+values.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build tmdb request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrMovieNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb %s: %w", path, err)
	}
	return nil
}

func (c *Client) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func toSummary(r movieResult) domain.MovieSummary {
	return domain.MovieSummary{
		ID:          r.ID,
		Title:       r.Title,
		Overview:    r.Overview,
		PosterPath:  r.PosterPath,
		ReleaseDate: r.ReleaseDate,
		VoteAverage: r.VoteAverage,
	}
}

func toSummaries(results []movieResult) []domain.MovieSummary {
	out := make([]domain.MovieSummary, 0, len(results))
	for _, r := range results {
		out = append(out, toSummary(r))
	}
	return out
}
