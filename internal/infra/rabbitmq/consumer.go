package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	retryHeader = "x-retry-count"
	maxBackoff  = 60 * time.Second
)

type MessageHandler func(ctx context.Context, body []byte) error

// Consumer feeds deliveries from the extraction queue to a pool of workers.
// A failed delivery is re-published with an incremented retry header after
// an exponential backoff, then acked.
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queue       string
	exchange    string
	routingKey  string
	workerCount int
	baseDelay   time.Duration
	handler     MessageHandler
	logger      *zap.Logger
	wg          sync.WaitGroup
	publishMu   sync.Mutex
}

type ConsumerConfig struct {
	URL           string
	Queue         string
	Exchange      string
	DLQ           string
	StatusQueue   string
	ExtractionKey string
	StatusKey     string
	Prefetch      int
	WorkerCount   int
	BaseDelayMs   int
}

func (cfg ConsumerConfig) withDefaults() ConsumerConfig {
	if cfg.ExtractionKey == "" {
		cfg.ExtractionKey = ExtractionRoutingKey
	}
	if cfg.StatusKey == "" {
		cfg.StatusKey = StatusRoutingKey
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.Prefetch < 1 {
		cfg.Prefetch = cfg.WorkerCount
	}
	return cfg
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	cfg = cfg.withDefaults()

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		conn:        conn,
		channel:     ch,
		queue:       cfg.Queue,
		exchange:    cfg.Exchange,
		routingKey:  cfg.ExtractionKey,
		workerCount: cfg.WorkerCount,
		baseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		handler:     handler,
		logger:      logger,
	}, nil
}

func declareTopology(ch *amqp.Channel, cfg ConsumerConfig) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range []string{cfg.Queue, cfg.DLQ, cfg.StatusQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	bindings := []struct{ queue, key string }{
		{cfg.Queue, cfg.ExtractionKey},
		{cfg.StatusQueue, cfg.StatusKey},
	}
	for _, b := range bindings {
		if err := ch.QueueBind(b.queue, b.key, cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", b.queue, b.key, err)
		}
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("starting worker pool",
		zap.Int("workers", c.workerCount),
		zap.String("queue", c.queue),
	)

	for i := 0; i < c.workerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, deliveries)
	}

	<-ctx.Done()
	c.logger.Info("context cancelled, waiting for workers to finish")
	c.wg.Wait()
	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	log := c.logger.With(zap.Int("worker_id", id))
	log.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			c.processDelivery(ctx, d, log)
		}
	}
}

func (c *Consumer) processDelivery(ctx context.Context, d amqp.Delivery, log *zap.Logger) {
	err := c.handler(ctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	retries := retryCount(d.Headers)
	delay := backoff(c.baseDelay, retries+1)
	log.Warn("message processing failed, scheduling retry",
		zap.Error(err),
		zap.Uint64("delivery_tag", d.DeliveryTag),
		zap.Int("retries", retries),
		zap.Duration("delay", delay),
	)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		_ = d.Nack(false, true)
		return
	}

	if err := c.republish(ctx, d, retries+1); err != nil {
		log.Error("republish failed, requeueing", zap.Error(err))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func (c *Consumer) republish(ctx context.Context, d amqp.Delivery, retries int) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(retries)

	// amqp channels are not safe for concurrent publishing.
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	return c.channel.PublishWithContext(ctx, c.exchange, c.routingKey, false, false, amqp.Publishing{
		ContentType:  d.ContentType,
		Body:         d.Body,
		Headers:      headers,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
	})
}

// retryCount reads how many times a delivery has already been retried.
func retryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	if deaths, ok := headers["x-death"].([]interface{}); ok {
		return len(deaths)
	}
	return 0
}

func backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
