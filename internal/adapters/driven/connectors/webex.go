package connectors

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// webexAPI reads rooms and messages from the Webex REST API.
type webexAPI struct{}

func (webexAPI) identity(ctx context.Context, c *apiClient, token *driven.OAuthToken) (*driven.OAuthUserInfo, error) {
	var me struct {
		ID          string   `json:"id"`
		DisplayName string   `json:"displayName"`
		Emails      []string `json:"emails"`
		OrgID       string   `json:"orgId"`
	}
	if err := c.getJSON(ctx, "/people/me", nil, &me); err != nil {
		return nil, err
	}

	info := &driven.OAuthUserInfo{ID: me.ID, Name: me.DisplayName, TeamID: me.OrgID}
	if len(me.Emails) > 0 {
		info.Email = me.Emails[0]
	}

	if me.OrgID != "" {
		var org struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		}
		if err := c.getJSON(ctx, "/organizations/"+url.PathEscape(me.OrgID), nil, &org); err != nil {
			c.logger.Warn("webex organization lookup failed", "error", err)
		} else {
			info.TeamName = org.DisplayName
		}
	}
	return info, nil
}

func (webexAPI) containers(ctx context.Context, c *apiClient, cred *domain.Credential, max int) ([]*domain.Container, error) {
	query := url.Values{"sortBy": {"lastactivity"}}
	if max > 0 {
		query.Set("max", strconv.Itoa(max))
	}

	var resp struct {
		Items []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Type  string `json:"type"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, "/rooms", query, &resp); err != nil {
		return nil, err
	}

	containers := make([]*domain.Container, 0, len(resp.Items))
	for _, room := range resp.Items {
		containers = append(containers, &domain.Container{
			ID:       room.ID,
			Name:     room.Title,
			Type:     "room",
			Metadata: map[string]string{"room_type": room.Type},
		})
	}
	return containers, nil
}

func (webexAPI) messages(ctx context.Context, c *apiClient, cred *domain.Credential, container *domain.Container, opts driven.ListOptions) ([]json.RawMessage, error) {
	query := url.Values{
		"roomId": {container.ID},
		"max":    {strconv.Itoa(clampPageSize(opts.Limit, 100))},
	}
	if opts.Until != nil {
		query.Set("before", opts.Until.UTC().Format(time.RFC3339))
	}

	var resp struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := c.getJSON(ctx, "/messages", query, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (webexAPI) meetings(ctx context.Context, c *apiClient, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
	return nil, domain.ErrUnsupported
}
