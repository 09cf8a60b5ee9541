package webpush

import (
	"encoding/json"
	"time"
)

// DefaultTitle is used when a notification has no title.
const DefaultTitle = "Notification"

// Payload is the message the service worker renders. The schema is shared
// with every push provider.
type Payload struct {
	NotificationID int64          `json:"notification_id"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	URL            *string        `json:"url"`
	Type           string         `json:"type"`
	Meta           map[string]any `json:"meta"`
	Timestamp      string         `json:"timestamp"`
}

// NewPayload fills defaults: a title, an empty meta object and an RFC 3339
// timestamp.
func NewPayload(id int64, title, body, url, typ string, meta map[string]any, created time.Time) Payload {
	p := Payload{
		NotificationID: id,
		Title:          title,
		Body:           body,
		Type:           typ,
		Meta:           meta,
		Timestamp:      created.UTC().Format(time.RFC3339),
	}
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if p.Meta == nil {
		p.Meta = map[string]any{}
	}
	if url != "" {
		p.URL = &url
	}
	return p
}

// Marshal encodes the payload.
func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}
