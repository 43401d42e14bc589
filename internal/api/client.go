// Package api implements the remote backend adapter. It owns the HTTP and
// JSON details and translates response statuses into the typed conditions
// the engine understands; callers never inspect status codes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker"

	"github.com/chihung93/kotlinconf-app/internal/domain"
	apperrors "github.com/chihung93/kotlinconf-app/internal/errors"
	"github.com/chihung93/kotlinconf-app/internal/metrics"
)

// Voting-window rejections use dedicated status codes rather than a body
// the client would have to parse.
const (
	statusComeBackLater = 477
	statusTooLate       = 478
)

const (
	pictureCacheSize = 256
	pictureCacheTTL  = time.Hour

	feedBreakerMaxFailures = 5
	feedBreakerOpenFor     = 30 * time.Second
)

// Client talks to the conference backend.
type Client struct {
	endpoint    string
	http        *http.Client
	feedBreaker *gobreaker.CircuitBreaker
	pictures    *expirable.LRU[string, []byte]
}

// NewClient creates a backend client for the given endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "feed",
		Timeout: feedBreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= feedBreakerMaxFailures
		},
	})

	return &Client{
		endpoint:    strings.TrimRight(endpoint, "/"),
		http:        &http.Client{Timeout: timeout},
		feedBreaker: breaker,
		pictures:    expirable.NewLRU[string, []byte](pictureCacheSize, nil, pictureCacheTTL),
	}
}

// SignIn registers the user identity with the backend.
func (c *Client) SignIn(ctx context.Context, userID string) error {
	_, err := c.do(ctx, "sign_in", http.MethodPost, "/users", userID, strings.NewReader(userID), "text/plain")
	return err
}

// FetchAll loads the complete conference payload. Favorites and votes are
// included when userID is non-empty.
func (c *Client) FetchAll(ctx context.Context, userID string) (*domain.AllData, error) {
	body, err := c.do(ctx, "fetch_all", http.MethodGet, "/all", userID, nil, "")
	if err != nil {
		return nil, err
	}

	var payload struct {
		AllData   domain.ConferenceSnapshot `json:"allData"`
		Favorites []string                  `json:"favorites"`
		Votes     []domain.VoteRecord       `json:"votes"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.TransportError("failed to decode conference payload", err)
	}

	return &domain.AllData{
		Snapshot:  payload.AllData,
		Favorites: payload.Favorites,
		Votes:     payload.Votes,
	}, nil
}

// AddFavorite marks sessionID as a favorite of userID.
func (c *Client) AddFavorite(ctx context.Context, userID, sessionID string) error {
	_, err := c.do(ctx, "add_favorite", http.MethodPost, "/favorites", userID, strings.NewReader(sessionID), "text/plain")
	return err
}

// RemoveFavorite removes sessionID from userID's favorites.
func (c *Client) RemoveFavorite(ctx context.Context, userID, sessionID string) error {
	_, err := c.do(ctx, "remove_favorite", http.MethodDelete, "/favorites", userID, strings.NewReader(sessionID), "text/plain")
	return err
}

// SetVote records a vote.
func (c *Client) SetVote(ctx context.Context, userID string, vote domain.VoteRecord) error {
	payload, err := json.Marshal(vote)
	if err != nil {
		return apperrors.TransportError("failed to encode vote", err)
	}
	_, err = c.do(ctx, "set_vote", http.MethodPost, "/votes", userID, bytes.NewReader(payload), "application/json")
	return err
}

// RemoveVote retracts a previously recorded vote.
func (c *Client) RemoveVote(ctx context.Context, userID, sessionID string) error {
	_, err := c.do(ctx, "remove_vote", http.MethodDelete, "/votes", userID, strings.NewReader(sessionID), "text/plain")
	return err
}

// FetchFeed loads the latest social feed snapshot. The call runs behind a
// circuit breaker: repeated failures short-circuit into Unavailable until the
// breaker half-opens.
func (c *Client) FetchFeed(ctx context.Context) (domain.FeedSnapshot, error) {
	result, err := c.feedBreaker.Execute(func() (any, error) {
		body, err := c.do(ctx, "fetch_feed", http.MethodGet, "/feed", "", nil, "")
		if err != nil {
			return nil, err
		}

		var snapshot domain.FeedSnapshot
		if err := json.Unmarshal(body, &snapshot); err != nil {
			return nil, apperrors.TransportError("failed to decode feed", err)
		}
		return snapshot, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.FeedSnapshot{}, apperrors.UnavailableError("feed circuit open", err)
		}
		return domain.FeedSnapshot{}, err
	}
	return result.(domain.FeedSnapshot), nil
}

// LoadPicture fetches an image by absolute URL, serving repeats from an
// in-memory expiring cache.
func (c *Client) LoadPicture(ctx context.Context, url string) ([]byte, error) {
	if data, ok := c.pictures.Get(url); ok {
		metrics.PictureCacheHitsTotal.WithLabelValues("hit").Inc()
		return data, nil
	}
	metrics.PictureCacheHitsTotal.WithLabelValues("miss").Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.TransportError("failed to build picture request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.TransportError("picture fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.TransportError(fmt.Sprintf("picture fetch returned status %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.TransportError("picture read failed", err)
	}

	c.pictures.Add(url, data)
	return data, nil
}

func (c *Client) do(ctx context.Context, operation, method, path, userID string, body io.Reader, contentType string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, apperrors.TransportError("failed to build request", err)
	}

	req.Header.Set("Cache-Control", "no-cache")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, apperrors.TransportError(operation+" request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode, operation); err != nil {
		metrics.APIRequestsTotal.WithLabelValues(operation, "rejected").Inc()
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, apperrors.TransportError(operation+" response read failed", err)
	}

	metrics.APIRequestsTotal.WithLabelValues(operation, "ok").Inc()
	return data, nil
}

func checkStatus(status int, operation string) error {
	switch status {
	case statusComeBackLater:
		return apperrors.TooEarlyError("voting is not open yet")
	case statusTooLate:
		return apperrors.TooLateError("voting is closed")
	case http.StatusUnauthorized:
		return apperrors.UnauthorizedError("backend rejected credentials")
	case http.StatusServiceUnavailable:
		return apperrors.UnavailableError("backend unavailable", nil)
	}

	if status < 200 || status > 299 {
		return apperrors.TransportError(fmt.Sprintf("%s returned status %d", operation, status), nil)
	}
	return nil
}
