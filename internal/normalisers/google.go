package normalisers

import (
	"strings"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// GoogleNormaliser maps Calendar events that carry conferencing details.
type GoogleNormaliser struct{}

func (GoogleNormaliser) Provider() domain.ProviderType { return domain.ProviderTypeGoogle }

// conferencingHosts are URL fragments that mark an event as a meeting.
var conferencingHosts = []string{
	"meet.google.com",
	"zoom.us/j/",
	"zoom.us/my/",
	"teams.microsoft.com/l/meetup-join",
	"teams.live.com/meet",
	"webex.com/meet",
	"webex.com/join",
	".webex.com/",
	"whereby.com/",
	"gotomeeting.com/join",
}

// IsConferencingURL reports whether text contains a known video meeting link.
func IsConferencingURL(text string) bool {
	text = strings.ToLower(text)
	for _, h := range conferencingHosts {
		if strings.Contains(text, h) {
			return true
		}
	}
	return false
}

type calendarPerson struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Self        bool   `json:"self"`
}

type calendarTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
	TimeZone string `json:"timeZone"`
}

func (t calendarTime) value() string { return FirstNonEmpty(t.DateTime, t.Date) }

type calendarEvent struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	HTMLLink    string          `json:"htmlLink"`
	HangoutLink string          `json:"hangoutLink"`
	Start       calendarTime    `json:"start"`
	End         calendarTime    `json:"end"`
	Organizer   *calendarPerson `json:"organizer"`
	Creator     *calendarPerson `json:"creator"`
	Attendees   []struct {
		calendarPerson
		ResponseStatus string `json:"responseStatus"`
		Resource       bool   `json:"resource"`
	} `json:"attendees"`
	ConferenceData *struct {
		ConferenceID       string `json:"conferenceId"`
		ConferenceSolution *struct {
			Name string `json:"name"`
			Key  struct {
				Type string `json:"type"`
			} `json:"key"`
		} `json:"conferenceSolution"`
		EntryPoints []struct {
			EntryPointType string `json:"entryPointType"`
			URI            string `json:"uri"`
		} `json:"entryPoints"`
	} `json:"conferenceData"`
	Attachments []struct {
		FileURL  string `json:"fileUrl"`
		Title    string `json:"title"`
		MimeType string `json:"mimeType"`
	} `json:"attachments"`
}

// joinURL returns the event's video link, if any, and whether the event
// counts as a meeting.
func (e *calendarEvent) joinURL() (string, bool) {
	if e.HangoutLink != "" {
		return e.HangoutLink, true
	}
	if cd := e.ConferenceData; cd != nil {
		for _, ep := range cd.EntryPoints {
			if ep.EntryPointType == "video" {
				return ep.URI, true
			}
		}
		if cd.ConferenceSolution != nil {
			return "", true
		}
	}
	for _, text := range []string{e.Location, e.Description} {
		if IsConferencingURL(text) {
			return "", true
		}
	}
	return "", false
}

func (GoogleNormaliser) NormaliseMessage(rec domain.RawRecord) (*domain.UnifiedMessage, error) {
	return nil, domain.ErrUnsupported
}

func (GoogleNormaliser) NormaliseMeeting(rec domain.RawRecord) (*domain.UnifiedMeeting, error) {
	var e calendarEvent
	if err := decode(rec, &e); err != nil {
		return nil, err
	}
	if e.ID == "" {
		return nil, malformed(rec, "event has no id")
	}
	if e.Status == "cancelled" {
		return nil, domain.ErrNotAMeeting
	}
	joinURL, ok := e.joinURL()
	if !ok {
		return nil, domain.ErrNotAMeeting
	}

	start, err := ParseTimestamp(e.Start.value())
	if err != nil {
		return nil, malformed(rec, "start: "+err.Error())
	}

	var organizerName, organizerEmail, creatorEmail string
	if e.Organizer != nil {
		organizerName, organizerEmail = e.Organizer.DisplayName, e.Organizer.Email
	}
	if e.Creator != nil {
		creatorEmail = e.Creator.Email
	}

	m := &domain.UnifiedMeeting{
		ID:           e.ID,
		StartTime:    start,
		Organizer:    identity(organizerName, organizerEmail, creatorEmail),
		Participants: make([]string, 0, len(e.Attendees)),
		Title:        identity(e.Summary, "Untitled meeting"),
		Metadata:     baseMetadata(rec),
	}
	if end, err := ParseTimestamp(e.End.value()); err == nil {
		m.EndTime = &end
		m.Duration = durationMinutes(start, end)
	}
	for _, a := range e.Attendees {
		if a.Resource {
			continue
		}
		if p := FirstNonEmpty(a.DisplayName, a.Email); p != "" {
			m.Participants = append(m.Participants, p)
		}
	}
	for _, att := range e.Attachments {
		if strings.HasPrefix(att.MimeType, "video/") {
			m.Recording = &domain.Recording{URL: att.FileURL, MimeType: att.MimeType}
			break
		}
	}

	if joinURL != "" {
		m.Metadata["joinUrl"] = joinURL
	}
	if e.ConferenceData != nil && e.ConferenceData.ConferenceSolution != nil {
		m.Metadata["conferenceSolution"] = e.ConferenceData.ConferenceSolution.Name
	}
	if e.HTMLLink != "" {
		m.Metadata["htmlLink"] = e.HTMLLink
	}
	if e.Location != "" {
		m.Metadata["location"] = e.Location
	}
	if e.Start.TimeZone != "" {
		m.Metadata["timeZone"] = e.Start.TimeZone
	}
	m.Metadata["status"] = e.Status
	return m, nil
}
