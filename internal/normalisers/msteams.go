package normalisers

import (
	"sort"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// MSTeamsNormaliser maps Graph chatMessage resources.
type MSTeamsNormaliser struct{}

func (MSTeamsNormaliser) Provider() domain.ProviderType { return domain.ProviderTypeMSTeams }

type graphIdentity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type teamsMessage struct {
	ID                   string `json:"id"`
	CreatedDateTime      string `json:"createdDateTime"`
	LastModifiedDateTime string `json:"lastModifiedDateTime"`
	MessageType          string `json:"messageType"`
	Subject              string `json:"subject"`
	Importance           string `json:"importance"`
	WebURL               string `json:"webUrl"`
	From                 *struct {
		User        *graphIdentity `json:"user"`
		Application *graphIdentity `json:"application"`
	} `json:"from"`
	Body struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	Reactions []struct {
		ReactionType string `json:"reactionType"`
	} `json:"reactions"`
	Attachments []struct {
		Name        string `json:"name"`
		ContentURL  string `json:"contentUrl"`
		ContentType string `json:"contentType"`
	} `json:"attachments"`
}

func (MSTeamsNormaliser) NormaliseMessage(rec domain.RawRecord) (*domain.UnifiedMessage, error) {
	var m teamsMessage
	if err := decode(rec, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, malformed(rec, "message has no id")
	}
	ts, err := ParseTimestamp(m.CreatedDateTime)
	if err != nil {
		return nil, malformed(rec, err.Error())
	}

	var userName, userID, appName string
	if m.From != nil {
		if m.From.User != nil {
			userName, userID = m.From.User.DisplayName, m.From.User.ID
		}
		if m.From.Application != nil {
			appName = m.From.Application.DisplayName
		}
	}

	msg := &domain.UnifiedMessage{
		ID:          m.ID,
		Timestamp:   ts,
		Author:      identity(userName, appName, userID),
		Channel:     channelName(rec, ""),
		Content:     PlainText(m.Body.Content, m.Body.ContentType),
		Reactions:   []domain.Reaction{},
		Attachments: make([]domain.Attachment, 0, len(m.Attachments)),
		Metadata:    baseMetadata(rec),
	}

	counts := make(map[string]int)
	for _, r := range m.Reactions {
		counts[r.ReactionType]++
	}
	for name, n := range counts {
		msg.Reactions = append(msg.Reactions, domain.Reaction{Name: name, Count: n})
	}
	sort.Slice(msg.Reactions, func(i, j int) bool { return msg.Reactions[i].Name < msg.Reactions[j].Name })

	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, domain.Attachment{Name: a.Name, URL: a.ContentURL, MimeType: a.ContentType})
	}

	msg.Metadata["messageType"] = m.MessageType
	if m.Subject != "" {
		msg.Metadata["subject"] = m.Subject
	}
	if m.Importance != "" {
		msg.Metadata["importance"] = m.Importance
	}
	if m.WebURL != "" {
		msg.Metadata["webUrl"] = m.WebURL
	}
	if userID != "" {
		msg.Metadata["userId"] = userID
	}
	return msg, nil
}

func (MSTeamsNormaliser) NormaliseMeeting(rec domain.RawRecord) (*domain.UnifiedMeeting, error) {
	return nil, domain.ErrUnsupported
}
