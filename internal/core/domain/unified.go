package domain

import (
	"encoding/json"
	"time"
)

// EntityKind selects which unified entities a query returns.
type EntityKind string

const (
	EntityMessages   EntityKind = "messages"
	EntityMeetings   EntityKind = "meetings"
	EntityActivities EntityKind = "activities"
	EntityAll        EntityKind = "all"
)

// ParseEntityKind validates a query type. Empty defaults to messages.
func ParseEntityKind(s string) (EntityKind, error) {
	switch k := EntityKind(s); k {
	case "":
		return EntityMessages, nil
	case EntityMessages, EntityMeetings, EntityActivities, EntityAll:
		return k, nil
	}
	return "", ErrInvalidInput
}

// Reaction is an emoji reaction with its count.
type Reaction struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Attachment is a file or link attached to a message.
type Attachment struct {
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// UnifiedMessage is a chat message from any provider.
type UnifiedMessage struct {
	ID          string         `json:"id"`
	Service     ProviderType   `json:"service"`
	Timestamp   time.Time      `json:"timestamp"`
	Author      string         `json:"author"`
	Channel     string         `json:"channel"`
	Content     string         `json:"content"`
	Reactions   []Reaction     `json:"reactions"`
	Attachments []Attachment   `json:"attachments"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Recording points at a meeting recording.
type Recording struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType,omitempty"`
}

// UnifiedMeeting is a scheduled or past meeting from any provider.
type UnifiedMeeting struct {
	ID           string         `json:"id"`
	Service      ProviderType   `json:"service"`
	StartTime    time.Time      `json:"startTime"`
	EndTime      *time.Time     `json:"endTime,omitempty"`
	Duration     int            `json:"duration"` // minutes
	Organizer    string         `json:"organizer"`
	Participants []string       `json:"participants"`
	Title        string         `json:"title"`
	Recording    *Recording     `json:"recording,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// ActivityType tags the source entity of an activity.
type ActivityType string

const (
	ActivityTypeMessage ActivityType = "message"
	ActivityTypeMeeting ActivityType = "meeting"
)

// UnifiedActivity is a timeline projection of a message or a meeting.
type UnifiedActivity struct {
	ID        string         `json:"id"`
	Service   ProviderType   `json:"service"`
	Type      ActivityType   `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	User      string         `json:"user"`
	Details   map[string]any `json:"details"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ActivityFromMessage projects a message onto the activity timeline.
func ActivityFromMessage(m *UnifiedMessage) *UnifiedActivity {
	return &UnifiedActivity{
		ID:        m.ID,
		Service:   m.Service,
		Type:      ActivityTypeMessage,
		Timestamp: m.Timestamp,
		User:      m.Author,
		Details: map[string]any{
			"channel":     m.Channel,
			"content":     m.Content,
			"reactions":   len(m.Reactions),
			"attachments": len(m.Attachments),
		},
		Metadata: m.Metadata,
	}
}

// ActivityFromMeeting projects a meeting onto the activity timeline.
func ActivityFromMeeting(m *UnifiedMeeting) *UnifiedActivity {
	details := map[string]any{
		"title":        m.Title,
		"duration":     m.Duration,
		"participants": len(m.Participants),
	}
	if m.Recording != nil {
		details["recording"] = m.Recording.URL
	}
	return &UnifiedActivity{
		ID:        m.ID,
		Service:   m.Service,
		Type:      ActivityTypeMeeting,
		Timestamp: m.StartTime,
		User:      m.Organizer,
		Details:   details,
		Metadata:  m.Metadata,
	}
}

// Default and maximum number of merged records per query.
const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 500
)

// DataIntegrationOptions are the per-query parameters. Not persisted.
type DataIntegrationOptions struct {
	DateFrom        *time.Time     `json:"dateFrom,omitempty"`
	DateTo          *time.Time     `json:"dateTo,omitempty"`
	Limit           int            `json:"limit"`
	IncludeMetadata bool           `json:"includeMetadata"`
	Services        []ProviderType `json:"services,omitempty"`
}

// Validate checks the date window and normalises the limit.
func (o *DataIntegrationOptions) Validate() error {
	if o.DateFrom != nil && o.DateTo != nil && o.DateFrom.After(*o.DateTo) {
		return ErrInvalidInput
	}
	if o.Limit < 0 {
		return ErrInvalidInput
	}
	if o.Limit == 0 {
		o.Limit = DefaultQueryLimit
	}
	if o.Limit > MaxQueryLimit {
		o.Limit = MaxQueryLimit
	}
	for _, s := range o.Services {
		if !s.IsSupported() {
			return ErrUnsupportedProvider
		}
	}
	return nil
}

// InWindow reports whether t falls inside the requested date window.
func (o *DataIntegrationOptions) InWindow(t time.Time) bool {
	if o.DateFrom != nil && t.Before(*o.DateFrom) {
		return false
	}
	if o.DateTo != nil && t.After(*o.DateTo) {
		return false
	}
	return true
}

// Container is a provider's grouping of messages: channel, room, guild or team.
type Container struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RawRecord is one undecoded provider record handed to the normaliser.
type RawRecord struct {
	Provider  ProviderType
	Kind      EntityKind
	Container *Container
	Payload   json.RawMessage
}

// ScanPolicy bounds a provider's container scan.
type ScanPolicy struct {
	MaxContainers  int           `json:"maxContainers" yaml:"max_containers"`
	InterCallDelay time.Duration `json:"interCallDelay" yaml:"inter_call_delay"`
}

// DefaultScanPolicy returns the default container scan bounds.
func DefaultScanPolicy() ScanPolicy {
	return ScanPolicy{
		MaxContainers:  5,
		InterCallDelay: 250 * time.Millisecond,
	}
}

// RateLimitStatus is the last rate-limit state a provider reported.
type RateLimitStatus struct {
	Limit      int        `json:"limit,omitempty"`
	Remaining  int        `json:"remaining"`
	ResetAt    *time.Time `json:"resetAt,omitempty"`
	RetryAfter int        `json:"retryAfterSeconds,omitempty"`
}

// AggregateResult is the merged outcome of one fan-out across providers.
type AggregateResult[T any] struct {
	Data               []T                              `json:"data"`
	Errors             map[ProviderType]string          `json:"errors,omitempty"`
	RateLimits         map[ProviderType]RateLimitStatus `json:"rateLimits,omitempty"`
	TotalServices      int                              `json:"totalServices"`
	SuccessfulServices int                              `json:"successfulServices"`
	TotalCount         int                              `json:"totalCount"`
	HasMore            bool                             `json:"hasMore"`
}

// UnifiedBundle is the result of an "all" query.
type UnifiedBundle struct {
	Messages   *AggregateResult[*UnifiedMessage]  `json:"messages"`
	Meetings   *AggregateResult[*UnifiedMeeting]  `json:"meetings"`
	Activities *AggregateResult[*UnifiedActivity] `json:"activities"`
}
