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

// discordEpoch is the first millisecond of 2015, the origin of Discord snowflakes.
const discordEpoch = 1420070400000

// discordAPI reads guild text channels. Guild and message reads use the
// configured bot token when present.
type discordAPI struct{}

func (discordAPI) identity(ctx context.Context, c *apiClient, token *driven.OAuthToken) (*driven.OAuthUserInfo, error) {
	var me struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Email      string `json:"email"`
	}
	if err := c.getJSON(ctx, "/users/@me", nil, &me); err != nil {
		return nil, err
	}

	name := me.GlobalName
	if name == "" {
		name = me.Username
	}
	info := &driven.OAuthUserInfo{ID: me.ID, Email: me.Email, Name: name}

	// Discord has no organisation; the first guild stands in for it.
	var guilds []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, "/users/@me/guilds", url.Values{"limit": {"1"}}, &guilds); err != nil {
		c.logger.Warn("discord guild lookup failed", "error", err)
	} else if len(guilds) > 0 {
		info.TeamID = guilds[0].ID
		info.TeamName = guilds[0].Name
	}
	return info, nil
}

// containers flattens guilds into their text channels.
func (discordAPI) containers(ctx context.Context, c *apiClient, cred *domain.Credential, max int) ([]*domain.Container, error) {
	var guilds []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, "/users/@me/guilds", nil, &guilds); err != nil {
		return nil, err
	}

	var containers []*domain.Container
	for _, g := range guilds {
		var channels []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Type     int    `json:"type"`
			Position int    `json:"position"`
		}
		if err := c.getJSON(ctx, "/guilds/"+url.PathEscape(g.ID)+"/channels", nil, &channels); err != nil {
			c.logger.Warn("discord channel listing failed", "guild", g.ID, "error", err)
			continue
		}

		for _, ch := range channels {
			// 0 = text, 5 = announcement
			if ch.Type != 0 && ch.Type != 5 {
				continue
			}
			containers = append(containers, &domain.Container{
				ID:   ch.ID,
				Name: g.Name + "/#" + ch.Name,
				Type: "guild_channel",
				Metadata: map[string]string{
					"guild_id":   g.ID,
					"guild_name": g.Name,
				},
			})
			if max > 0 && len(containers) >= max {
				return containers, nil
			}
		}
	}
	return containers, nil
}

// messages reads backwards from Until (or now), newest first. Discord treats
// after and before as exclusive cursors and after returns the oldest
// messages of the window, so Since is applied to the snowflake ids here.
func (discordAPI) messages(ctx context.Context, c *apiClient, cred *domain.Credential, container *domain.Container, opts driven.ListOptions) ([]json.RawMessage, error) {
	query := url.Values{
		"limit": {strconv.Itoa(clampPageSize(opts.Limit, 100))},
	}
	if opts.Until != nil {
		query.Set("before", discordSnowflake(*opts.Until))
	}

	var messages []json.RawMessage
	if err := c.getJSON(ctx, "/channels/"+url.PathEscape(container.ID)+"/messages", query, &messages); err != nil {
		return nil, err
	}
	if opts.Since == nil {
		return messages, nil
	}

	floor := uint64(discordSnowflakeValue(*opts.Since))
	kept := messages[:0]
	for _, raw := range messages {
		var m struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &m); err != nil {
			// Malformed payloads are counted by the normaliser.
			kept = append(kept, raw)
			continue
		}
		id, err := strconv.ParseUint(m.ID, 10, 64)
		if err != nil || id >= floor {
			kept = append(kept, raw)
		}
	}
	return kept, nil
}

func (discordAPI) meetings(ctx context.Context, c *apiClient, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
	return nil, domain.ErrUnsupported
}

// discordSnowflake returns the smallest snowflake created at t.
func discordSnowflake(t time.Time) string {
	return strconv.FormatInt(discordSnowflakeValue(t), 10)
}

func discordSnowflakeValue(t time.Time) int64 {
	ms := t.UnixMilli() - discordEpoch
	if ms < 0 {
		ms = 0
	}
	return ms << 22
}
