package normalisers

import (
	"path"
	"strings"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// WebexNormaliser maps room messages.
type WebexNormaliser struct{}

func (WebexNormaliser) Provider() domain.ProviderType { return domain.ProviderTypeWebex }

type webexMessage struct {
	ID          string   `json:"id"`
	RoomID      string   `json:"roomId"`
	RoomType    string   `json:"roomType"`
	ParentID    string   `json:"parentId"`
	Text        string   `json:"text"`
	Markdown    string   `json:"markdown"`
	HTML        string   `json:"html"`
	PersonID    string   `json:"personId"`
	PersonEmail string   `json:"personEmail"`
	Created     string   `json:"created"`
	Files       []string `json:"files"`
}

func (WebexNormaliser) NormaliseMessage(rec domain.RawRecord) (*domain.UnifiedMessage, error) {
	var m webexMessage
	if err := decode(rec, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, malformed(rec, "message has no id")
	}
	ts, err := ParseTimestamp(m.Created)
	if err != nil {
		return nil, malformed(rec, err.Error())
	}

	content := PlainText(m.Text, "text")
	if content == "" && m.HTML != "" {
		content = PlainText(m.HTML, "html")
	}

	msg := &domain.UnifiedMessage{
		ID:          m.ID,
		Timestamp:   ts,
		Author:      identity(m.PersonEmail, m.PersonID),
		Channel:     channelName(rec, m.RoomID),
		Content:     content,
		Reactions:   []domain.Reaction{},
		Attachments: make([]domain.Attachment, 0, len(m.Files)),
		Metadata:    baseMetadata(rec),
	}
	for _, f := range m.Files {
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			Name: path.Base(strings.TrimRight(f, "/")),
			URL:  f,
		})
	}

	msg.Metadata["personId"] = m.PersonID
	msg.Metadata["roomType"] = m.RoomType
	if m.ParentID != "" {
		msg.Metadata["parentId"] = m.ParentID
	}
	if m.Markdown != "" {
		msg.Metadata["markdown"] = m.Markdown
	}
	return msg, nil
}

func (WebexNormaliser) NormaliseMeeting(rec domain.RawRecord) (*domain.UnifiedMeeting, error) {
	return nil, domain.ErrUnsupported
}
