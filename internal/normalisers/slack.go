package normalisers

import (
	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// SlackNormaliser maps conversations.history messages.
type SlackNormaliser struct{}

func (SlackNormaliser) Provider() domain.ProviderType { return domain.ProviderTypeSlack }

type slackMessage struct {
	Type        string `json:"type"`
	Subtype     string `json:"subtype"`
	TS          string `json:"ts"`
	ThreadTS    string `json:"thread_ts"`
	User        string `json:"user"`
	Username    string `json:"username"`
	BotID       string `json:"bot_id"`
	Text        string `json:"text"`
	ReplyCount  int    `json:"reply_count"`
	UserProfile *struct {
		DisplayName string `json:"display_name"`
		RealName    string `json:"real_name"`
	} `json:"user_profile"`
	Reactions []struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	} `json:"reactions"`
	Files []struct {
		Name       string `json:"name"`
		Title      string `json:"title"`
		URLPrivate string `json:"url_private"`
		Mimetype   string `json:"mimetype"`
	} `json:"files"`
}

func (SlackNormaliser) NormaliseMessage(rec domain.RawRecord) (*domain.UnifiedMessage, error) {
	var m slackMessage
	if err := decode(rec, &m); err != nil {
		return nil, err
	}
	if m.TS == "" {
		return nil, malformed(rec, "message has no ts")
	}
	ts, err := ParseTimestamp(m.TS)
	if err != nil {
		return nil, malformed(rec, err.Error())
	}

	var displayName, realName string
	if m.UserProfile != nil {
		displayName, realName = m.UserProfile.DisplayName, m.UserProfile.RealName
	}

	id := m.TS
	if rec.Container != nil {
		id = rec.Container.ID + ":" + m.TS
	}

	msg := &domain.UnifiedMessage{
		ID:          id,
		Timestamp:   ts,
		Author:      identity(displayName, realName, m.Username, m.User, m.BotID),
		Channel:     channelName(rec, ""),
		Content:     PlainText(m.Text, "text"),
		Reactions:   make([]domain.Reaction, 0, len(m.Reactions)),
		Attachments: make([]domain.Attachment, 0, len(m.Files)),
		Metadata:    baseMetadata(rec),
	}
	for _, r := range m.Reactions {
		msg.Reactions = append(msg.Reactions, domain.Reaction{Name: r.Name, Count: r.Count})
	}
	for _, f := range m.Files {
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			Name:     FirstNonEmpty(f.Name, f.Title),
			URL:      f.URLPrivate,
			MimeType: f.Mimetype,
		})
	}

	msg.Metadata["ts"] = m.TS
	if m.Subtype != "" {
		msg.Metadata["subtype"] = m.Subtype
	}
	if m.ThreadTS != "" {
		msg.Metadata["threadTs"] = m.ThreadTS
		msg.Metadata["replyCount"] = m.ReplyCount
	}
	if m.User != "" {
		msg.Metadata["userId"] = m.User
	}
	return msg, nil
}

func (SlackNormaliser) NormaliseMeeting(rec domain.RawRecord) (*domain.UnifiedMeeting, error) {
	return nil, domain.ErrUnsupported
}
