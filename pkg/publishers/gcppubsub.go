package publishers

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

type pubsubTopic interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

type gcpPubSubSender struct {
	topic pubsubTopic
}

// newGCPPubSubSender falls back to application default credentials when no file is configured.
func newGCPPubSubSender(ctx context.Context, cfg *GCPQueueConfig) (queueSender, error) {
	if cfg == nil {
		return nil, errors.New("gcp queue configuration is missing")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &gcpPubSubSender{topic: client.Topic(cfg.Topic)}, nil
}

func (s *gcpPubSubSender) MaxBodyBytes() int { return pubsubMaxBodyBytes }

// Send publishes the body and blocks until the server acknowledges it.
func (s *gcpPubSubSender) Send(ctx context.Context, msg message) (string, error) {
	res := s.topic.Publish(ctx, &pubsub.Message{Data: msg.Body, Attributes: msg.Attributes})
	id, err := res.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("send message to pubsub: %w", err)
	}
	return id, nil
}
