package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/waypoint/internal/core/domain"
)

// Subjects published by the engine.
const (
	SubjectFixPrefix       = "waypoint.fix."
	SubjectImageProcessed  = "waypoint.image.processed"
	SubjectClustersUpdated = "waypoint.clusters.updated"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream. inboundSubject is the
// subject raw tracker messages arrive on; its stream is created here too so
// that messages sent before the consumer starts are retained.
func NewPublisher(url, inboundSubject string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js, inboundSubject); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext, inboundSubject string) error {
	streams := []nats.StreamConfig{
		{
			Name:      "WAYPOINT_FIXES",
			Subjects:  []string{SubjectFixPrefix + ">"},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "WAYPOINT_IMAGES",
			Subjects:  []string{SubjectImageProcessed},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:              "WAYPOINT_CLUSTERS",
			Subjects:          []string{SubjectClustersUpdated},
			Retention:         nats.LimitsPolicy,
			MaxMsgsPerSubject: 1,
			Storage:           nats.FileStorage,
		},
		{
			Name:      "WAYPOINT_INBOUND",
			Subjects:  []string{inboundSubject},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// PublishFix announces a newly stored fix on waypoint.fix.<source>.
func (p *Publisher) PublishFix(ctx context.Context, fix *domain.GeoFix) error {
	data, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectFixPrefix+string(fix.Source), data, nats.Context(ctx))
	return err
}

// PublishImage announces a processed image, located or not.
func (p *Publisher) PublishImage(ctx context.Context, img *domain.ProcessedImage) error {
	data, err := json.Marshal(img)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectImageProcessed, data, nats.Context(ctx))
	return err
}

// PublishClusters announces a new cluster snapshot.
func (p *Publisher) PublishClusters(ctx context.Context, snap *domain.ClusterSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectClustersUpdated, data, nats.Context(ctx))
	return err
}

// PublishTrackerMessage enqueues raw tracker text on the inbound subject.
func (p *Publisher) PublishTrackerMessage(ctx context.Context, subject, text string) error {
	_, err := p.js.Publish(subject, []byte(text), nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("waypoint"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
