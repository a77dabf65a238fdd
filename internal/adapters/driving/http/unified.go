package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// UnifiedResponse is the envelope of GET /unified.
// @Description Merged provider data with per-provider status
type UnifiedResponse struct {
	Success    bool              `json:"success" example:"true"`
	Data       any               `json:"data"`
	Metadata   UnifiedMetadata   `json:"metadata"`
	Pagination UnifiedPagination `json:"pagination"`
}

// UnifiedMetadata reports which providers answered.
type UnifiedMetadata struct {
	TotalServices      int                                            `json:"totalServices" example:"2"`
	SuccessfulServices int                                            `json:"successfulServices" example:"1"`
	Errors             map[domain.ProviderType]string                 `json:"errors,omitempty"`
	RateLimits         map[domain.ProviderType]domain.RateLimitStatus `json:"rateLimits,omitempty"`
}

// UnifiedPagination describes truncation by limit.
type UnifiedPagination struct {
	HasMore    bool `json:"hasMore"`
	TotalCount int  `json:"totalCount" example:"42"`
}

// handleUnified godoc
// @Summary      Unified feed
// @Description  Fans out to the caller's connected providers and merges the results newest first. Provider failures are reported in metadata.errors and never fail the request.
// @Tags         Unified
// @Produce      json
// @Security     BearerAuth
// @Param        type             query     string  false  "messages, meetings, activities or all"  default(messages)
// @Param        services         query     string  false  "Comma-separated provider subset"
// @Param        dateFrom         query     string  false  "RFC 3339 timestamp or YYYY-MM-DD"
// @Param        dateTo           query     string  false  "RFC 3339 timestamp or YYYY-MM-DD"
// @Param        limit            query     int     false  "Maximum records (default 50, max 500)"
// @Param        includeMetadata  query     bool    false  "Include raw provider fields"
// @Success      200              {object}  UnifiedResponse
// @Failure      400              {object}  ErrorResponse
// @Failure      401              {object}  ErrorResponse
// @Router       /unified [get]
func (s *Server) handleUnified(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	kind, opts, err := parseUnifiedQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp UnifiedResponse
	switch kind {
	case domain.EntityMessages:
		res, ferr := s.aggregationService.FetchMessages(r.Context(), authCtx.UserID, opts)
		err = ferr
		if err == nil {
			resp = envelope(res.Data, res)
		}
	case domain.EntityMeetings:
		res, ferr := s.aggregationService.FetchMeetings(r.Context(), authCtx.UserID, opts)
		err = ferr
		if err == nil {
			resp = envelope(res.Data, res)
		}
	case domain.EntityActivities:
		res, ferr := s.aggregationService.FetchActivities(r.Context(), authCtx.UserID, opts)
		err = ferr
		if err == nil {
			resp = envelope(res.Data, res)
		}
	case domain.EntityAll:
		bundle, ferr := s.aggregationService.FetchAll(r.Context(), authCtx.UserID, opts)
		err = ferr
		if err == nil {
			// Activities carry the union of both fan-outs' errors and limits.
			resp = envelope(bundle, bundle.Activities)
		}
	}

	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrUnsupportedProvider) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("unified fetch failed", "type", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch unified data")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func envelope[T any](data any, res *domain.AggregateResult[T]) UnifiedResponse {
	if d, ok := data.([]T); ok && d == nil {
		data = []T{}
	}
	return UnifiedResponse{
		Success: true,
		Data:    data,
		Metadata: UnifiedMetadata{
			TotalServices:      res.TotalServices,
			SuccessfulServices: res.SuccessfulServices,
			Errors:             res.Errors,
			RateLimits:         res.RateLimits,
		},
		Pagination: UnifiedPagination{
			HasMore:    res.HasMore,
			TotalCount: res.TotalCount,
		},
	}
}

// parseUnifiedQuery maps query parameters onto options. Limit bounds are
// applied later by DataIntegrationOptions.Validate.
func parseUnifiedQuery(q url.Values) (domain.EntityKind, domain.DataIntegrationOptions, error) {
	var opts domain.DataIntegrationOptions

	kind, err := domain.ParseEntityKind(q.Get("type"))
	if err != nil {
		return "", opts, fmt.Errorf("invalid type %q: use messages, meetings, activities or all", q.Get("type"))
	}

	if raw := q.Get("services"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			p, err := domain.ParseProviderType(tag)
			if err != nil {
				return "", opts, fmt.Errorf("unsupported service %q", tag)
			}
			opts.Services = append(opts.Services, p)
		}
	}

	if opts.DateFrom, err = parseDateParam(q.Get("dateFrom"), false); err != nil {
		return "", opts, fmt.Errorf("invalid dateFrom: %v", err)
	}
	if opts.DateTo, err = parseDateParam(q.Get("dateTo"), true); err != nil {
		return "", opts, fmt.Errorf("invalid dateTo: %v", err)
	}
	if opts.DateFrom != nil && opts.DateTo != nil && opts.DateFrom.After(*opts.DateTo) {
		return "", opts, errors.New("dateFrom must not be after dateTo")
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return "", opts, fmt.Errorf("invalid limit %q", raw)
		}
		opts.Limit = n
	}

	if raw := q.Get("includeMetadata"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return "", opts, fmt.Errorf("invalid includeMetadata %q", raw)
		}
		opts.IncludeMetadata = b
	}

	return kind, opts, nil
}

// parseDateParam accepts RFC 3339 or a bare date. A bare dateTo covers the
// whole day.
func parseDateParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
