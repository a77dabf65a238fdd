package connectors

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// msTeamsAPI reads joined teams and channel messages from Microsoft Graph.
// Graph pages with @odata.nextLink, an absolute URL.
type msTeamsAPI struct{}

// maxGraphPages bounds nextLink following for one listing.
const maxGraphPages = 5

func (msTeamsAPI) identity(ctx context.Context, c *apiClient, token *driven.OAuthToken) (*driven.OAuthUserInfo, error) {
	var me struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := c.getJSON(ctx, "/me", nil, &me); err != nil {
		return nil, err
	}

	email := me.Mail
	if email == "" {
		email = me.UserPrincipalName
	}
	info := &driven.OAuthUserInfo{ID: me.ID, Email: email, Name: me.DisplayName}

	var org struct {
		Value []struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"value"`
	}
	if err := c.getJSON(ctx, "/organization", nil, &org); err != nil {
		c.logger.Warn("msteams organization lookup failed", "error", err)
	} else if len(org.Value) > 0 {
		info.TeamID = org.Value[0].ID
		info.TeamName = org.Value[0].DisplayName
	}
	return info, nil
}

// containers flattens joined teams into their channels.
func (msTeamsAPI) containers(ctx context.Context, c *apiClient, cred *domain.Credential, max int) ([]*domain.Container, error) {
	var teams struct {
		Value []struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"value"`
	}
	if err := c.getJSON(ctx, "/me/joinedTeams", nil, &teams); err != nil {
		return nil, err
	}

	var containers []*domain.Container
	for _, team := range teams.Value {
		var channels struct {
			Value []struct {
				ID          string `json:"id"`
				DisplayName string `json:"displayName"`
			} `json:"value"`
		}
		if err := c.getJSON(ctx, "/teams/"+url.PathEscape(team.ID)+"/channels", nil, &channels); err != nil {
			c.logger.Warn("msteams channel listing failed", "team", team.ID, "error", err)
			continue
		}

		for _, ch := range channels.Value {
			containers = append(containers, &domain.Container{
				ID:   ch.ID,
				Name: team.DisplayName + "/" + ch.DisplayName,
				Type: "team_channel",
				Metadata: map[string]string{
					"team_id":   team.ID,
					"team_name": team.DisplayName,
				},
			})
			if max > 0 && len(containers) >= max {
				return containers, nil
			}
		}
	}
	return containers, nil
}

func (msTeamsAPI) messages(ctx context.Context, c *apiClient, cred *domain.Credential, container *domain.Container, opts driven.ListOptions) ([]json.RawMessage, error) {
	limit := clampPageSize(opts.Limit, 50)
	path := "/teams/" + url.PathEscape(container.Metadata["team_id"]) +
		"/channels/" + url.PathEscape(container.ID) + "/messages"
	query := url.Values{"$top": {strconv.Itoa(limit)}}

	var out []json.RawMessage
	for page := 0; page < maxGraphPages; page++ {
		var resp struct {
			Value    []json.RawMessage `json:"value"`
			NextLink string            `json:"@odata.nextLink"`
		}
		if err := c.getJSON(ctx, path, query, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Value...)

		if resp.NextLink == "" || len(out) >= limit {
			break
		}
		path, query = resp.NextLink, nil
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (msTeamsAPI) meetings(ctx context.Context, c *apiClient, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
	return nil, domain.ErrUnsupported
}
