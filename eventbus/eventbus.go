// Package eventbus decouples anomaly persistence from alert dispatch:
// the store publishes "anomaly.persisted" once a row is committed, and
// the alert fanout subscribes independently, so a slow or failing
// webhook never blocks the write path.
package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/sentinela-labs/sentinela/logging"
	"github.com/sentinela-labs/sentinela/store"
)

// AnomalyPersistedEvent is published once CreateAnomaly commits; it is
// an alias of store.AnomalyPersistedEvent so *Bus satisfies
// store.AnomalyPublisher without the store package importing eventbus.
type AnomalyPersistedEvent = store.AnomalyPersistedEvent

const subjectAnomalyPersisted = "sentinela.anomaly.persisted"

// Bus wraps a nats.Conn with the narrow publish/subscribe surface this
// system needs.
type Bus struct {
	conn   *nats.Conn
	logger logging.Logger
}

// Connect dials the given NATS URL.
func Connect(url string, logger logging.Logger) (*Bus, error) {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Bus{conn: conn, logger: logger}, nil
}

// Close drains and closes the underlying connection.
func (b *Bus) Close() {
	if b.conn != nil {
		_ = b.conn.Drain()
	}
}

// PublishAnomalyPersisted announces a committed anomaly row. Best
// effort: a publish failure is logged, never surfaced to the store
// write path.
func (b *Bus) PublishAnomalyPersisted(event AnomalyPersistedEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("failed to marshal anomaly persisted event", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := b.conn.Publish(subjectAnomalyPersisted, data); err != nil {
		b.logger.Error("failed to publish anomaly persisted event", map[string]interface{}{"anomaly_id": event.AnomalyID, "error": err.Error()})
	}
}

// AnomalyPersistedHandler processes one decoded event.
type AnomalyPersistedHandler func(AnomalyPersistedEvent)

// SubscribeAnomalyPersisted registers handler against every published
// anomaly-persisted event, using a queue group so multiple alert-fanout
// replicas share the load instead of each delivering the same alert.
func (b *Bus) SubscribeAnomalyPersisted(queueGroup string, handler AnomalyPersistedHandler) (*nats.Subscription, error) {
	return b.conn.QueueSubscribe(subjectAnomalyPersisted, queueGroup, func(msg *nats.Msg) {
		var event AnomalyPersistedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			b.logger.Error("failed to decode anomaly persisted event", map[string]interface{}{"error": err.Error()})
			return
		}
		handler(event)
	})
}
