package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"streamcatalog/internal/biz"
	"streamcatalog/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	defaultRatingTimeout = 3 * time.Second
	ratingTripFailures   = 5
)

var errNotRated = errors.New("title not rated")

type ratingSource struct {
	client  *http.Client
	baseURL string
	apiKey  string
	cb      *gobreaker.CircuitBreaker[float64]
	log     *log.Helper
}

// NewRatingSource creates the external rating API client. An empty URL
// disables lookups and every title rates 0.
func NewRatingSource(c *conf.RatingSource, logger log.Logger) biz.ExternalRatingSource {
	l := log.NewHelper(logger)

	var baseURL, apiKey string
	timeout := defaultRatingTimeout
	if c != nil {
		baseURL = strings.TrimRight(c.Url, "/")
		apiKey = c.ApiKey
		if d := c.Timeout.AsDuration(); d > 0 {
			timeout = d
		}
	}

	cb := gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        "rating-source",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= ratingTripFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotRated)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Infof("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &ratingSource{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		cb:      cb,
		log:     l,
	}
}

func (s *ratingSource) FetchRating(ctx context.Context, title string) (float64, error) {
	if s.baseURL == "" {
		return 0, nil
	}

	rating, err := s.cb.Execute(func() (float64, error) {
		return s.doRequest(ctx, title)
	})
	if errors.Is(err, errNotRated) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rating lookup for %q: %w", title, err)
	}
	return rating, nil
}

func (s *ratingSource) doRequest(ctx context.Context, title string) (float64, error) {
	endpoint := fmt.Sprintf("%s/rating?title=%s", s.baseURL, url.QueryEscape(title))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	// Add API key header
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Handle non-200 responses
	if resp.StatusCode == http.StatusNotFound {
		return 0, errNotRated
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// Parse response
	var response struct {
		Rating *float64 `json:"rating"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Rating == nil {
		return 0, errNotRated
	}

	rating := *response.Rating
	if math.IsNaN(rating) || rating < 0 || rating > 10 {
		return 0, fmt.Errorf("rating %v out of range", rating)
	}
	return rating, nil
}
