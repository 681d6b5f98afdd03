package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("event publisher closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards events to a kafka topic for the delivery and
// notification flows that run outside this service. Publish only queues;
// a single goroutine started by Start drains the queue into the writer.
type KafkaPublisher struct {
	w       messageWriter
	logger  *zap.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}

	stopping chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
	closed   bool
}

// NewKafkaPublisher creates a publisher for topic.
func NewKafkaPublisher(brokers []string, topic string, buf int, logger *zap.Logger) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, buf, logger)
}

func newKafkaPublisher(w messageWriter, buf int, logger *zap.Logger) *KafkaPublisher {
	if buf <= 0 {
		buf = 1
	}
	return &KafkaPublisher{
		w:       w,
		logger:  logger,
		inbox:    make(chan kafka.Message, buf),
		closeCh:  make(chan struct{}),
		stopping: make(chan struct{}),
	}
}

// Start runs the writer loop until ctx is cancelled or Close is called.
// Queued messages are flushed before the writer closes.
func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.Close()
				for m := range p.inbox {
					p.write(context.Background(), m)
				}
				p.closeWriter()
				return
			case m, ok := <-p.inbox:
				if !ok {
					p.closeWriter()
					return
				}
				p.write(ctx, m)
			}
		}
	}()
}

// Publish queues event. It blocks while the queue is full.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	case <-p.stopping:
		return ErrPublisherClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events. The writer loop flushes what is queued.
func (p *KafkaPublisher) Close() {
	p.stopOnce.Do(func() { close(p.stopping) })
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// WaitClosed blocks until the writer loop has exited.
func (p *KafkaPublisher) WaitClosed() {
	<-p.closeCh
}

func (p *KafkaPublisher) write(ctx context.Context, m kafka.Message) {
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.logger.Error("kafka publish failed", zap.ByteString("key", m.Key), zap.Error(err))
	}
}

func (p *KafkaPublisher) closeWriter() {
	if err := p.w.Close(); err != nil {
		p.logger.Warn("kafka writer close failed", zap.Error(err))
	}
}
