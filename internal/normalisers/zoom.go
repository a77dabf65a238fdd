package normalisers

import (
	"encoding/json"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// ZoomNormaliser maps scheduled meetings and webinars. Every Zoom record is
// a meeting.
type ZoomNormaliser struct{}

func (ZoomNormaliser) Provider() domain.ProviderType { return domain.ProviderTypeZoom }

type zoomMeeting struct {
	UUID      string      `json:"uuid"`
	ID        json.Number `json:"id"`
	Topic     string      `json:"topic"`
	Type      int         `json:"type"`
	StartTime string      `json:"start_time"`
	CreatedAt string      `json:"created_at"`
	Duration  int         `json:"duration"`
	Timezone  string      `json:"timezone"`
	HostID    string      `json:"host_id"`
	HostEmail string      `json:"host_email"`
	JoinURL   string      `json:"join_url"`
	Agenda    string      `json:"agenda"`
}

func (ZoomNormaliser) NormaliseMessage(rec domain.RawRecord) (*domain.UnifiedMessage, error) {
	return nil, domain.ErrUnsupported
}

func (ZoomNormaliser) NormaliseMeeting(rec domain.RawRecord) (*domain.UnifiedMeeting, error) {
	var z zoomMeeting
	if err := decode(rec, &z); err != nil {
		return nil, err
	}

	id := FirstNonEmpty(z.ID.String(), z.UUID)
	if id == "" {
		return nil, malformed(rec, "meeting has no id")
	}
	// Recurring meetings without a fixed time carry no start_time.
	start, err := ParseTimestamp(FirstNonEmpty(z.StartTime, z.CreatedAt))
	if err != nil {
		return nil, malformed(rec, "start: "+err.Error())
	}

	m := &domain.UnifiedMeeting{
		ID:           id,
		StartTime:    start,
		Duration:     z.Duration,
		Organizer:    identity(z.HostEmail, z.HostID),
		Participants: []string{},
		Title:        identity(z.Topic, "Untitled meeting"),
		Metadata:     baseMetadata(rec),
	}
	if z.Duration > 0 {
		end := start.Add(time.Duration(z.Duration) * time.Minute)
		m.EndTime = &end
	}

	kind := "meeting"
	if rec.Container != nil && rec.Container.Type == "webinar" {
		kind = "webinar"
	}
	m.Metadata["kind"] = kind
	m.Metadata["meetingType"] = z.Type
	if z.UUID != "" {
		m.Metadata["uuid"] = z.UUID
	}
	if z.JoinURL != "" {
		m.Metadata["joinUrl"] = z.JoinURL
	}
	if z.Timezone != "" {
		m.Metadata["timezone"] = z.Timezone
	}
	if z.Agenda != "" {
		m.Metadata["agenda"] = z.Agenda
	}
	return m, nil
}
