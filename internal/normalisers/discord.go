package normalisers

import (
	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// DiscordNormaliser maps guild channel messages.
type DiscordNormaliser struct{}

func (DiscordNormaliser) Provider() domain.ProviderType { return domain.ProviderTypeDiscord }

type discordMessage struct {
	ID              string `json:"id"`
	ChannelID       string `json:"channel_id"`
	Content         string `json:"content"`
	Timestamp       string `json:"timestamp"`
	EditedTimestamp string `json:"edited_timestamp"`
	Type            int    `json:"type"`
	Pinned          bool   `json:"pinned"`
	Author          *struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Bot        bool   `json:"bot"`
	} `json:"author"`
	Reactions []struct {
		Count int `json:"count"`
		Emoji struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"emoji"`
	} `json:"reactions"`
	Attachments []struct {
		Filename    string `json:"filename"`
		URL         string `json:"url"`
		ContentType string `json:"content_type"`
	} `json:"attachments"`
}

func (DiscordNormaliser) NormaliseMessage(rec domain.RawRecord) (*domain.UnifiedMessage, error) {
	var m discordMessage
	if err := decode(rec, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, malformed(rec, "message has no id")
	}
	ts, err := ParseTimestamp(m.Timestamp)
	if err != nil {
		return nil, malformed(rec, err.Error())
	}

	var globalName, username, authorID string
	var bot bool
	if m.Author != nil {
		globalName, username, authorID, bot = m.Author.GlobalName, m.Author.Username, m.Author.ID, m.Author.Bot
	}

	msg := &domain.UnifiedMessage{
		ID:          m.ID,
		Timestamp:   ts,
		Author:      identity(globalName, username, authorID),
		Channel:     channelName(rec, m.ChannelID),
		Content:     PlainText(m.Content, "markdown"),
		Reactions:   make([]domain.Reaction, 0, len(m.Reactions)),
		Attachments: make([]domain.Attachment, 0, len(m.Attachments)),
		Metadata:    baseMetadata(rec),
	}
	for _, r := range m.Reactions {
		msg.Reactions = append(msg.Reactions, domain.Reaction{Name: identity(r.Emoji.Name, r.Emoji.ID), Count: r.Count})
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, domain.Attachment{Name: a.Filename, URL: a.URL, MimeType: a.ContentType})
	}

	msg.Metadata["messageType"] = m.Type
	msg.Metadata["pinned"] = m.Pinned
	if authorID != "" {
		msg.Metadata["authorId"] = authorID
		msg.Metadata["bot"] = bot
	}
	if m.EditedTimestamp != "" {
		msg.Metadata["editedTimestamp"] = m.EditedTimestamp
	}
	return msg, nil
}

func (DiscordNormaliser) NormaliseMeeting(rec domain.RawRecord) (*domain.UnifiedMeeting, error) {
	return nil, domain.ErrUnsupported
}
