package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// mattermostAPI reads a self-hosted Mattermost server through API v4.
// Channel listing is keyed on the external user id, so identity is required.
type mattermostAPI struct{}

func (mattermostAPI) identity(ctx context.Context, c *apiClient, token *driven.OAuthToken) (*driven.OAuthUserInfo, error) {
	var me struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Nickname  string `json:"nickname"`
		Email     string `json:"email"`
	}
	if err := c.getJSON(ctx, "/users/me", nil, &me); err != nil {
		return nil, err
	}
	if me.ID == "" {
		return nil, fmt.Errorf("mattermost: user id missing from /users/me")
	}

	name := strings.TrimSpace(me.FirstName + " " + me.LastName)
	if name == "" {
		name = me.Username
	}
	info := &driven.OAuthUserInfo{ID: me.ID, Email: me.Email, Name: name}

	var teams []struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	}
	if err := c.getJSON(ctx, "/users/me/teams", nil, &teams); err != nil {
		c.logger.Warn("mattermost team lookup failed", "error", err)
	} else if len(teams) > 0 {
		info.TeamID = teams[0].ID
		info.TeamName = teams[0].DisplayName
	}
	return info, nil
}

func (mattermostAPI) containers(ctx context.Context, c *apiClient, cred *domain.Credential, max int) ([]*domain.Container, error) {
	if cred.ExternalUserID == "" {
		return nil, fmt.Errorf("%w: mattermost: credential has no external user id", domain.ErrProviderFetch)
	}

	var channels []struct {
		ID          string `json:"id"`
		TeamID      string `json:"team_id"`
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Type        string `json:"type"`
		LastPostAt  int64  `json:"last_post_at"`
		DeleteAt    int64  `json:"delete_at"`
	}
	path := "/users/" + url.PathEscape(cred.ExternalUserID) + "/channels"
	if err := c.getJSON(ctx, path, nil, &channels); err != nil {
		return nil, err
	}

	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].LastPostAt > channels[j].LastPostAt
	})

	containers := make([]*domain.Container, 0, len(channels))
	for _, ch := range channels {
		if ch.DeleteAt != 0 {
			continue
		}
		name := ch.DisplayName
		if name == "" {
			name = ch.Name
		}
		containers = append(containers, &domain.Container{
			ID:   ch.ID,
			Name: name,
			Type: "channel",
			Metadata: map[string]string{
				"team_id":      ch.TeamID,
				"channel_type": ch.Type,
			},
		})
	}
	return containers, nil
}

func (mattermostAPI) messages(ctx context.Context, c *apiClient, cred *domain.Credential, container *domain.Container, opts driven.ListOptions) ([]json.RawMessage, error) {
	perPage := clampPageSize(opts.Limit, 200)
	query := url.Values{}
	if opts.Since != nil {
		// since cannot be combined with paging
		query.Set("since", strconv.FormatInt(opts.Since.UnixMilli(), 10))
	} else {
		query.Set("page", "0")
		query.Set("per_page", strconv.Itoa(perPage))
	}

	var resp struct {
		Order []string                   `json:"order"`
		Posts map[string]json.RawMessage `json:"posts"`
	}
	path := "/channels/" + url.PathEscape(container.ID) + "/posts"
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return nil, err
	}

	out := make([]json.RawMessage, 0, len(resp.Order))
	for _, id := range resp.Order {
		if p, ok := resp.Posts[id]; ok {
			out = append(out, p)
		}
		if len(out) >= perPage {
			break
		}
	}
	return out, nil
}

func (mattermostAPI) meetings(ctx context.Context, c *apiClient, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
	return nil, domain.ErrUnsupported
}
