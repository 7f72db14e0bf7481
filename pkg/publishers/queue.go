package publishers

import (
	"context"
	"fmt"

	"github.com/Adda-Baaj/portco-news/internal/logger"
)

// queueSender delivers an encoded message to one provider and returns the provider's message id.
type queueSender interface {
	Send(ctx context.Context, msg message) (string, error)
	// MaxBodyBytes is the largest body the provider accepts.
	MaxBodyBytes() int
}

// queuePublisher encodes fetch results within the provider's size limit and hands them to a sender.
type queuePublisher struct {
	id       string
	typ      string
	provider string
	sender   queueSender
	log      logger.Logger
}

func newQueuePublisher(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("publisher %q missing queue configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sender, err := newQueueSender(ctx, cfg.Queue)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}

	return &queuePublisher{
		id:       cfg.ID,
		typ:      cfg.Type,
		provider: cfg.Queue.Provider,
		sender:   sender,
		log:      logger.Ensure(log),
	}, nil
}

func newQueueSender(ctx context.Context, qc *QueuePublisherConfig) (queueSender, error) {
	switch qc.Provider {
	case QueueProviderAWSSQS:
		return newAWSSQSSender(ctx, qc.AWS)
	case QueueProviderAWSSNS:
		return newAWSSNSSender(ctx, qc.SNS)
	case QueueProviderGCP:
		return newGCPPubSubSender(ctx, qc.GCP)
	}
	return nil, fmt.Errorf("queue provider %q is not supported", qc.Provider)
}

func (p *queuePublisher) ID() string   { return p.id }
func (p *queuePublisher) Type() string { return p.typ }

// Publish encodes evt, shedding the oldest records if needed, and sends it.
func (p *queuePublisher) Publish(ctx context.Context, evt Event) error {
	msg, sent, err := encodeMessage(evt, p.sender.MaxBodyBytes())
	if err != nil {
		return fmt.Errorf("queue provider %s: %w", p.provider, err)
	}
	if sent.Truncated {
		p.log.WarnObj("fetch result truncated to fit queue message", "publisher_queue_truncated", map[string]any{
			"publisher_id": p.id,
			"provider":     p.provider,
			"source":       sent.Source,
			"kept":         sent.Size(),
			"dropped":      sent.Dropped,
		})
	}

	msgID, err := p.sender.Send(ctx, msg)
	if err != nil {
		p.log.ErrorObj("queue publisher send failed", "publisher_queue_error", map[string]any{
			"publisher_id": p.id,
			"provider":     p.provider,
			"source":       sent.Source,
			"error":        err.Error(),
		})
		return fmt.Errorf("queue provider %s send failed: %w", p.provider, err)
	}

	p.log.DebugObj("queue publisher sent fetch result", "publisher_queue_sent", map[string]any{
		"publisher_id": p.id,
		"provider":     p.provider,
		"source":       sent.Source,
		"size":         sent.Size(),
		"bytes":        len(msg.Body),
		"message_id":   msgID,
	})
	return nil
}
