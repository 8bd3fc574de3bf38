package kafkax

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

// EventMeta is the header metadata booking events carry.
type EventMeta struct {
	EventID   string
	EventType string
	TenantID  string
}

// ExtractEventMeta falls back to the message key for the id and the topic for the type.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	eventID := HeaderValue(msg.Headers, "event_id")
	eventType := HeaderValue(msg.Headers, "event_type")
	if eventID == "" {
		eventID = string(msg.Key)
	}
	if eventType == "" {
		eventType = msg.Topic
	}
	return EventMeta{
		EventID:   eventID,
		EventType: eventType,
		TenantID:  HeaderValue(msg.Headers, "tenant_id"),
	}
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	return SplitList(raw)
}

// SplitList parses a comma separated env value, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}
