package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExtractionRoutingKey = "frames.extraction"
	StatusRoutingKey     = "frames.status"
	dlqReasonHeader      = "x-dlq-reason"
)

// Publisher shares one channel between the status and DLQ publishers.
type Publisher struct {
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

func (p *Publisher) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx, exchange, key, false, false, msg)
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

type StatusPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewStatusPublisher(pub *Publisher) *StatusPublisher {
	return &StatusPublisher{pub: pub, routingKey: StatusRoutingKey}
}

func (sp *StatusPublisher) PublishStatus(ctx context.Context, msg entity.FrameStatusMessage) error {
	pub, err := statusPublishing(msg)
	if err != nil {
		return err
	}
	if err := sp.pub.publish(ctx, sp.pub.exchange, sp.routingKey, pub); err != nil {
		return fmt.Errorf("publish status for job %s: %w", msg.JobID, err)
	}
	return nil
}

func statusPublishing(msg entity.FrameStatusMessage) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal status message: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.JobID.String(),
		Type:         string(msg.Status),
		Timestamp:    time.Now().UTC(),
	}, nil
}

type DLQPublisher struct {
	pub   *Publisher
	queue string
}

func NewDLQPublisher(pub *Publisher, dlqQueue string) *DLQPublisher {
	return &DLQPublisher{pub: pub, queue: dlqQueue}
}

func (dp *DLQPublisher) PublishToDLQ(ctx context.Context, body []byte, reason string) error {
	return dp.pub.publish(ctx, "", dp.queue, dlqPublishing(body, reason))
}

func dlqPublishing(body []byte, reason string) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers: amqp.Table{
			dlqReasonHeader: reason,
		},
	}
}
