package natsadapter

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
	subs    []*nats.Subscription
}

// NewSubscriber connects to NATS and consumes raw tracker messages from
// inboundSubject.
func NewSubscriber(url, inboundSubject string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js, subject: inboundSubject}, nil
}

// SubscribeTrackerMessages delivers every inbound message body to handler.
// A handler error naks the message for redelivery, up to three attempts.
func (s *Subscriber) SubscribeTrackerMessages(ctx context.Context, handler func(ctx context.Context, text string) error) error {
	sub, err := s.js.Subscribe(s.subject, func(msg *nats.Msg) {
		if err := handler(ctx, string(msg.Data)); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("tracker-ingestor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
