package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/cloudevents/sdk-go/v2/event"
)

// attributes lets subscribers filter without decoding the body.
func attributes(e event.Event) map[string]string {
	attrs := map[string]string{
		"ce-type":   e.Type(),
		"ce-source": e.Source(),
	}
	if s := e.Subject(); s != "" {
		attrs["ce-subject"] = s
	}
	return attrs
}

// PubSubAdapter provides message publishing using Google Cloud Pub/Sub
type PubSubAdapter struct {
	Client *pubsub.Client
}

func (a *PubSubAdapter) PublishCloudEvent(ctx context.Context, topicID string, e event.Event) (string, error) {
	bytes, err := json.Marshal(e)
	if err != nil {
		slog.Error("Failed to marshal CloudEvent", "topic", topicID, "error", err)
		return "", err
	}
	slog.Info("Publishing CloudEvent",
		"topic", topicID,
		"event_type", e.Type(),
		"event_id", e.ID(),
		"source", e.Source(),
		"size_bytes", len(bytes))
	return a.publishWithAttrs(ctx, topicID, bytes, attributes(e))
}

func (a *PubSubAdapter) publishWithAttrs(ctx context.Context, topicID string, data []byte, attrs map[string]string) (string, error) {
	topic := a.Client.Topic(topicID)
	res := topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	msgID, err := res.Get(ctx)
	if err != nil {
		slog.Error("Failed to publish message", "topic", topicID, "error", err)
		return "", err
	}
	slog.Info("Message published successfully", "topic", topicID, "message_id", msgID, "size_bytes", len(data))
	return msgID, nil
}

// LogPublisher logs events instead of publishing them. Used when
// ENABLE_PUBLISH is off.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p *LogPublisher) PublishCloudEvent(ctx context.Context, topicID string, e event.Event) (string, error) {
	bytes, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "MOCK PUBLISH", "topic", topicID, "data", string(bytes), "attributes", attributes(e))
	return "mock-msg-id", nil
}
