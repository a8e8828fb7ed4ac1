package errorstore

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"
)

// RuntimeSubject is the NATS subject the preview's embedded error
// handler publishes to; one subject per project keeps reports scoped
// without a broker-side filter.
func RuntimeSubject(projectID string) string {
	return fmt.Sprintf("appgen.runtime-errors.%s", projectID)
}

// RuntimeBridge subscribes to the runtime-error channel and feeds every
// report into Store.RecordRuntimeError, decoupling the HTTP report
// endpoint (which only needs to publish) from persistence.
type RuntimeBridge struct {
	nc    *nats.Conn
	store *Store
	subs  []*nats.Subscription
}

// NewRuntimeBridge connects to a NATS server and wraps it around store.
func NewRuntimeBridge(natsURL string, store *Store) (*RuntimeBridge, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &RuntimeBridge{nc: nc, store: store}, nil
}

// Subscribe starts consuming runtime-error reports for projectID.
func (b *RuntimeBridge) Subscribe(projectID string) error {
	sub, err := b.nc.Subscribe(RuntimeSubject(projectID), func(msg *nats.Msg) {
		var report RuntimeReport
		if err := json.Unmarshal(msg.Data, &report); err != nil {
			log.Printf("[errorstore] malformed runtime report for %s: %v", projectID, err)
			return
		}
		if _, err := b.store.RecordRuntimeError(projectID, report); err != nil {
			log.Printf("[errorstore] failed to record runtime error for %s: %v", projectID, err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to runtime channel: %w", err)
	}
	b.subs = append(b.subs, sub)
	return nil
}

// Publish sends one runtime report, used directly by the HTTP report
// endpoint handler instead of a browser client in tests.
func (b *RuntimeBridge) Publish(projectID string, report RuntimeReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal runtime report: %w", err)
	}
	return b.nc.Publish(RuntimeSubject(projectID), data)
}

// Close unsubscribes and drains the NATS connection.
func (b *RuntimeBridge) Close() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.nc.Close()
}
