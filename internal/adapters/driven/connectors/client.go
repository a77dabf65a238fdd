package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// APIError is a non-2xx response from a provider API.
type APIError struct {
	Provider   domain.ProviderType
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, body)
}

// apiClient performs authenticated calls against one provider API on behalf
// of one credential. A client is used serially by a single operation; every
// call after the first waits for the pacer.
type apiClient struct {
	provider      domain.ProviderType
	httpClient    *http.Client
	baseURL       string
	identityURL   string
	authorization string
	pacer         driven.Pacer
	delay         time.Duration
	logger        *slog.Logger
	calls         int
}

// userInfoPath returns the absolute user-info URL when the provider serves
// it outside its API base, otherwise path.
func (c *apiClient) userInfoPath(path string) string {
	if c.identityURL != "" {
		return c.identityURL
	}
	return path
}

// doRequest sends a request and returns the response for a 2xx status.
// A 401 maps to domain.ErrProviderUnauthorized and any other failure to
// domain.ErrProviderFetch. The caller closes the body.
func (c *apiClient) doRequest(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	if c.calls > 0 && c.pacer != nil && c.delay > 0 {
		if err := c.pacer.Pause(ctx, c.delay); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrProviderFetch, c.provider, err)
		}
	}
	c.calls++

	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.baseURL + path
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.authorization)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProviderFetch, c.provider, err)
	}

	if status, ok := parseRateLimit(resp.Header); ok {
		driven.RecordRateLimit(ctx, status)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	apiErr := &APIError{Provider: c.provider, StatusCode: resp.StatusCode, Body: string(body)}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnauthorized, apiErr)
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrProviderFetch, apiErr)
}

// getJSON performs a GET and decodes the JSON response into out.
func (c *apiClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", domain.ErrProviderFetch, c.provider, err)
	}
	return nil
}

// parseRateLimit reads the rate-limit headers used across providers.
// X-RateLimit-Reset is either an epoch timestamp or seconds until reset.
func parseRateLimit(h http.Header) (domain.RateLimitStatus, bool) {
	var status domain.RateLimitStatus
	found := false

	if v := h.Get("X-RateLimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			status.Limit = n
			found = true
		}
	}
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			status.Remaining = n
			found = true
		}
	}
	if v := h.Get("X-RateLimit-Reset-After"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			t := time.Now().Add(time.Duration(f * float64(time.Second))).UTC()
			status.ResetAt = &t
			found = true
		}
	} else if v := h.Get("X-RateLimit-Reset"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			var t time.Time
			if f > 1e9 {
				t = time.Unix(int64(f), 0).UTC()
			} else {
				t = time.Now().Add(time.Duration(f) * time.Second).UTC()
			}
			status.ResetAt = &t
			found = true
		}
	}
	if v := h.Get("Retry-After"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			status.RetryAfter = n
			found = true
		}
	}
	return status, found
}

// clampPageSize bounds a per-request page size.
func clampPageSize(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
