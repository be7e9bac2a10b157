package types

import "time"

// PubSubMessage is the envelope Eventarc delivers for a Pub/Sub trigger.
// Data holds the published bytes: a structured CloudEvent for events this
// service publishes, plain JSON for requests from other producers.
type PubSubMessage struct {
	Message      PushedMessage `json:"message"`
	Subscription string        `json:"subscription,omitempty"`
}

type PushedMessage struct {
	Data        []byte            `json:"data"`
	Attributes  map[string]string `json:"attributes"`
	MessageID   string            `json:"messageId,omitempty"`
	PublishTime time.Time         `json:"publishTime,omitempty"`
}

// Attr returns a message attribute, or "" when unset.
func (m PushedMessage) Attr(key string) string {
	return m.Attributes[key]
}
