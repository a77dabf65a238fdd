package connectors

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// googleAPI reads Google Calendar events; the normaliser keeps only those
// with Meet or other conferencing details.
type googleAPI struct{}

const (
	// Plain calendar events are dropped later, so fetch more than the limit.
	googleOverfetch = 4
	googleMaxPages  = 10
	googleLookback  = 30 * 24 * time.Hour
)

func (googleAPI) identity(ctx context.Context, c *apiClient, token *driven.OAuthToken) (*driven.OAuthUserInfo, error) {
	var u struct {
		Sub    string `json:"sub"`
		Email  string `json:"email"`
		Name   string `json:"name"`
		Domain string `json:"hd"`
	}
	if err := c.getJSON(ctx, c.userInfoPath("/userinfo"), nil, &u); err != nil {
		return nil, err
	}

	info := &driven.OAuthUserInfo{ID: u.Sub, Email: u.Email, Name: u.Name}
	switch {
	case u.Domain != "":
		info.TeamID, info.TeamName = u.Domain, u.Domain
	case strings.Contains(u.Email, "@"):
		d := u.Email[strings.LastIndex(u.Email, "@")+1:]
		info.TeamID, info.TeamName = d, d
	}
	return info, nil
}

func (googleAPI) containers(ctx context.Context, c *apiClient, cred *domain.Credential, max int) ([]*domain.Container, error) {
	return nil, domain.ErrUnsupported
}

func (googleAPI) messages(ctx context.Context, c *apiClient, cred *domain.Credential, container *domain.Container, opts driven.ListOptions) ([]json.RawMessage, error) {
	return nil, domain.ErrUnsupported
}

// meetings reads the window oldest first, as the Calendar API only orders by
// ascending start time, and keeps the newest want events. The window ends at
// Until or now so that upcoming events do not crowd out recent ones.
func (googleAPI) meetings(ctx context.Context, c *apiClient, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
	want := clampPageSize(opts.Limit, 250) * googleOverfetch

	timeMax := time.Now()
	if opts.Until != nil {
		timeMax = *opts.Until
	}
	timeMin := timeMax.Add(-googleLookback)
	if opts.Since != nil {
		timeMin = *opts.Since
	}
	query := url.Values{
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
		"maxResults":   {"250"},
		"timeMin":      {timeMin.UTC().Format(time.RFC3339)},
		"timeMax":      {timeMax.UTC().Format(time.RFC3339)},
	}

	var records []domain.RawRecord
	for page := 0; page < googleMaxPages; page++ {
		var resp struct {
			Items         []json.RawMessage `json:"items"`
			NextPageToken string            `json:"nextPageToken"`
		}
		if err := c.getJSON(ctx, "/calendars/primary/events", query, &resp); err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			records = append(records, domain.RawRecord{Payload: item})
		}
		if len(records) > want {
			records = records[len(records)-want:]
		}

		if resp.NextPageToken == "" {
			break
		}
		if page == googleMaxPages-1 {
			c.logger.Warn("google calendar window truncated", "pages", googleMaxPages)
		}
		query.Set("pageToken", resp.NextPageToken)
	}
	return records, nil
}
