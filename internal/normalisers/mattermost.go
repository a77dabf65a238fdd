package normalisers

import (
	"sort"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// MattermostNormaliser maps channel posts. Timestamps are epoch millis.
type MattermostNormaliser struct{}

func (MattermostNormaliser) Provider() domain.ProviderType { return domain.ProviderTypeMattermost }

type mattermostPost struct {
	ID        string         `json:"id"`
	CreateAt  int64          `json:"create_at"`
	EditAt    int64          `json:"edit_at"`
	UserID    string         `json:"user_id"`
	ChannelID string         `json:"channel_id"`
	RootID    string         `json:"root_id"`
	Message   string         `json:"message"`
	Type      string         `json:"type"`
	Props     map[string]any `json:"props"`
	Metadata  struct {
		Reactions []struct {
			EmojiName string `json:"emoji_name"`
			UserID    string `json:"user_id"`
		} `json:"reactions"`
		Files []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			MimeType string `json:"mime_type"`
		} `json:"files"`
	} `json:"metadata"`
}

func (MattermostNormaliser) NormaliseMessage(rec domain.RawRecord) (*domain.UnifiedMessage, error) {
	var p mattermostPost
	if err := decode(rec, &p); err != nil {
		return nil, err
	}
	if p.ID == "" || p.CreateAt == 0 {
		return nil, malformed(rec, "post has no id or create_at")
	}

	overrideName, _ := p.Props["override_username"].(string)
	msg := &domain.UnifiedMessage{
		ID:          p.ID,
		Timestamp:   fromEpoch(float64(p.CreateAt)),
		Author:      identity(overrideName, p.UserID),
		Channel:     channelName(rec, p.ChannelID),
		Content:     PlainText(p.Message, "markdown"),
		Reactions:   []domain.Reaction{},
		Attachments: make([]domain.Attachment, 0, len(p.Metadata.Files)),
		Metadata:    baseMetadata(rec),
	}

	// Mattermost lists one reaction per user; fold them into counts.
	counts := make(map[string]int)
	for _, r := range p.Metadata.Reactions {
		counts[r.EmojiName]++
	}
	for name, n := range counts {
		msg.Reactions = append(msg.Reactions, domain.Reaction{Name: name, Count: n})
	}
	sort.Slice(msg.Reactions, func(i, j int) bool { return msg.Reactions[i].Name < msg.Reactions[j].Name })

	for _, f := range p.Metadata.Files {
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			Name:     identity(f.Name, f.ID),
			URL:      "/api/v4/files/" + f.ID,
			MimeType: f.MimeType,
		})
	}

	msg.Metadata["userId"] = p.UserID
	if p.RootID != "" {
		msg.Metadata["rootId"] = p.RootID
	}
	if p.Type != "" {
		msg.Metadata["postType"] = p.Type
	}
	if p.EditAt != 0 {
		msg.Metadata["editedAt"] = fromEpoch(float64(p.EditAt))
	}
	return msg, nil
}

func (MattermostNormaliser) NormaliseMeeting(rec domain.RawRecord) (*domain.UnifiedMeeting, error) {
	return nil, domain.ErrUnsupported
}
