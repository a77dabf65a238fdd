package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// slackAPI reads channels and history from the Slack Web API. Slack reports
// most failures as HTTP 200 with ok=false.
type slackAPI struct{}

type slackEnvelope struct {
	OK               bool   `json:"ok"`
	Error            string `json:"error"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

func (e slackEnvelope) err() error {
	if e.OK {
		return nil
	}
	switch e.Error {
	case "invalid_auth", "not_authed", "token_revoked", "token_expired", "account_inactive":
		return fmt.Errorf("%w: slack: %s", domain.ErrProviderUnauthorized, e.Error)
	}
	return fmt.Errorf("%w: slack: %s", domain.ErrProviderFetch, e.Error)
}

func (slackAPI) identity(ctx context.Context, c *apiClient, token *driven.OAuthToken) (*driven.OAuthUserInfo, error) {
	info := &driven.OAuthUserInfo{
		ID:       token.Extra["user_id"],
		TeamID:   token.Extra["team_id"],
		TeamName: token.Extra["team_name"],
	}

	var resp struct {
		slackEnvelope
		User   string `json:"user"`
		UserID string `json:"user_id"`
		Team   string `json:"team"`
		TeamID string `json:"team_id"`
	}
	err := c.getJSON(ctx, "/auth.test", nil, &resp)
	if err == nil {
		err = resp.err()
	}
	if err != nil {
		// The token response already named the workspace.
		if info.TeamName != "" {
			c.logger.Warn("slack auth.test failed, using token response identity", "error", err)
			return info, nil
		}
		return nil, err
	}

	info.Name = resp.User
	if resp.UserID != "" {
		info.ID = resp.UserID
	}
	if resp.TeamID != "" {
		info.TeamID = resp.TeamID
	}
	if resp.Team != "" {
		info.TeamName = resp.Team
	}
	return info, nil
}

func (slackAPI) containers(ctx context.Context, c *apiClient, cred *domain.Credential, max int) ([]*domain.Container, error) {
	var containers []*domain.Container
	cursor := ""
	for {
		query := url.Values{
			"types":            {"public_channel,private_channel"},
			"exclude_archived": {"true"},
			"limit":            {"200"},
		}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp struct {
			slackEnvelope
			Channels []struct {
				ID         string `json:"id"`
				Name       string `json:"name"`
				IsPrivate  bool   `json:"is_private"`
				IsMember   bool   `json:"is_member"`
				NumMembers int    `json:"num_members"`
			} `json:"channels"`
		}
		if err := c.getJSON(ctx, "/conversations.list", query, &resp); err != nil {
			return nil, err
		}
		if err := resp.err(); err != nil {
			return nil, err
		}

		for _, ch := range resp.Channels {
			containers = append(containers, &domain.Container{
				ID:   ch.ID,
				Name: ch.Name,
				Type: "channel",
				Metadata: map[string]string{
					"private": strconv.FormatBool(ch.IsPrivate),
					"members": strconv.Itoa(ch.NumMembers),
				},
			})
		}

		cursor = resp.ResponseMetadata.NextCursor
		if cursor == "" || (max > 0 && len(containers) >= max) {
			return containers, nil
		}
	}
}

func (slackAPI) messages(ctx context.Context, c *apiClient, cred *domain.Credential, container *domain.Container, opts driven.ListOptions) ([]json.RawMessage, error) {
	query := url.Values{
		"channel": {container.ID},
		"limit":   {strconv.Itoa(clampPageSize(opts.Limit, 200))},
	}
	if opts.Since != nil {
		query.Set("oldest", fmt.Sprintf("%d.000000", opts.Since.Unix()))
	}
	if opts.Until != nil {
		query.Set("latest", fmt.Sprintf("%d.000000", opts.Until.Unix()))
	}

	var resp struct {
		slackEnvelope
		Messages []json.RawMessage `json:"messages"`
	}
	if err := c.getJSON(ctx, "/conversations.history", query, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (slackAPI) meetings(ctx context.Context, c *apiClient, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
	return nil, domain.ErrUnsupported
}
