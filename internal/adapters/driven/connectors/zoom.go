package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// zoomAPI reads meetings and webinars. The token endpoint takes client
// credentials as HTTP Basic auth (see Spec.TokenAuth).
type zoomAPI struct{}

const zoomMaxPages = 3

var zoomWebinarContainer = &domain.Container{ID: "webinars", Name: "Webinars", Type: "webinar"}

func (zoomAPI) identity(ctx context.Context, c *apiClient, token *driven.OAuthToken) (*driven.OAuthUserInfo, error) {
	var u struct {
		ID          string `json:"id"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
		AccountID   string `json:"account_id"`
		Company     string `json:"company"`
	}
	if err := c.getJSON(ctx, "/users/me", nil, &u); err != nil {
		return nil, err
	}

	name := u.DisplayName
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return &driven.OAuthUserInfo{
		ID:       u.ID,
		Email:    u.Email,
		Name:     name,
		TeamID:   u.AccountID,
		TeamName: u.Company,
	}, nil
}

func (zoomAPI) containers(ctx context.Context, c *apiClient, cred *domain.Credential, max int) ([]*domain.Container, error) {
	return nil, domain.ErrUnsupported
}

func (zoomAPI) messages(ctx context.Context, c *apiClient, cred *domain.Credential, container *domain.Container, opts driven.ListOptions) ([]json.RawMessage, error) {
	return nil, domain.ErrUnsupported
}

// meetings lists scheduled meetings, then webinars. Webinars need an add-on
// license; failures there other than a rejected credential are skipped.
func (zoomAPI) meetings(ctx context.Context, c *apiClient, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
	limit := clampPageSize(opts.Limit, 300)

	meetings, err := zoomList(ctx, c, "/users/me/meetings", "meetings", url.Values{"type": {"scheduled"}}, limit)
	if err != nil {
		return nil, err
	}
	records := make([]domain.RawRecord, 0, len(meetings))
	for _, m := range meetings {
		records = append(records, domain.RawRecord{Payload: m})
	}

	webinars, err := zoomList(ctx, c, "/users/me/webinars", "webinars", url.Values{}, limit)
	if err != nil {
		if errors.Is(err, domain.ErrProviderUnauthorized) {
			return nil, err
		}
		c.logger.Debug("zoom webinar listing skipped", "error", err)
		return records, nil
	}
	for _, w := range webinars {
		records = append(records, domain.RawRecord{Container: zoomWebinarContainer, Payload: w})
	}
	return records, nil
}

// zoomList follows next_page_token until limit items or zoomMaxPages pages.
func zoomList(ctx context.Context, c *apiClient, path, field string, query url.Values, limit int) ([]json.RawMessage, error) {
	query.Set("page_size", strconv.Itoa(limit))

	var out []json.RawMessage
	for page := 0; page < zoomMaxPages; page++ {
		var resp map[string]json.RawMessage
		if err := c.getJSON(ctx, path, query, &resp); err != nil {
			return nil, err
		}

		var items []json.RawMessage
		if raw, ok := resp[field]; ok {
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, err
			}
		}
		out = append(out, items...)

		var next string
		if raw, ok := resp["next_page_token"]; ok {
			_ = json.Unmarshal(raw, &next)
		}
		if next == "" || len(out) >= limit {
			break
		}
		query.Set("next_page_token", next)
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
