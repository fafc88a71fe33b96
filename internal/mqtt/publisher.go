package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rodrigocabraln/bank-scraper/internal/core"
	"github.com/rodrigocabraln/bank-scraper/internal/log"
	"github.com/rodrigocabraln/bank-scraper/internal/snapshot"
)

// heartbeatTopic carries the snapshot's updated_at on every publish cycle.
const heartbeatTopic = "bank_scraper/last_update"

// Publisher encodes a snapshot into discovery config/state/attributes
// messages. Publishing is idempotent: retained messages simply overwrite.
type Publisher struct {
	broker Broker
	prefix string
	logger *log.Logger
}

func NewPublisher(broker Broker, topicPrefix string, logger *log.Logger) *Publisher {
	prefix := strings.TrimSpace(topicPrefix)
	if prefix == "" {
		prefix = "banks"
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Publisher{broker: broker, prefix: prefix, logger: logger.WithComponent(log.ComponentMQTT)}
}

// PublishSnapshot publishes the heartbeat, one status entity per source and,
// for sources without an error, one entity per account. The first publish
// failure aborts the cycle; the next periodic attempt may succeed.
func (p *Publisher) PublishSnapshot(snap core.Snapshot) error {
	updatedAt := snap.UpdatedAt.Format("2006-01-02T15:04:05-07:00")
	if err := p.broker.Publish(heartbeatTopic, []byte(updatedAt)); err != nil {
		return err
	}

	for sourceID, result := range snap.Banks {
		lastUpdated := result.UpdatedAt
		if lastUpdated == "" {
			lastUpdated = updatedAt
		}

		if err := p.publishStatus(sourceID, result, lastUpdated); err != nil {
			return err
		}
		if result.Failed() {
			p.logger.Warn("Source reported an error, publishing status only", log.FieldSource, sourceID, log.FieldError, result.Error)
			continue
		}
		for idx, acc := range result.Accounts {
			if err := p.publishAccount(sourceID, idx, acc, lastUpdated); err != nil {
				return err
			}
		}
	}
	return nil
}

// publishStatus emits the per-source binary_sensor with device_class
// "problem": ON when the scrape failed, OFF when it succeeded.
func (p *Publisher) publishStatus(sourceID string, result core.SourceResult, lastUpdated string) error {
	entityID := strings.ReplaceAll(strings.ToLower(sourceID+"_status"), " ", "_")
	base := fmt.Sprintf("%s/binary_sensor/%s/%s", discoveryDomain, p.prefix, entityID)

	config := map[string]any{
		"name":                  displayName(sourceID) + " Status",
		"unique_id":             entityID,
		"state_topic":           base + "/state",
		"device_class":          "problem",
		"json_attributes_topic": base + "/attributes",
		"device":                deviceInfo(sourceID),
	}
	if err := p.publishJSON(base+"/config", config); err != nil {
		return err
	}

	state := "OFF"
	if result.Failed() {
		state = "ON"
	}
	if err := p.broker.Publish(base+"/state", []byte(state)); err != nil {
		return err
	}

	attrs := map[string]any{
		"error":        nil,
		"updated_at":   result.UpdatedAt,
		"last_updated": lastUpdated,
	}
	if result.Failed() {
		attrs["error"] = result.Error
	}
	return p.publishJSON(base+"/attributes", attrs)
}

// publishAccount emits the monetary sensor for one account. idx is the
// account's position in the report: it stands in for a missing account
// number, so number-less accounts in the same currency still get distinct
// entities instead of overwriting one another's retained messages.
func (p *Publisher) publishAccount(sourceID string, idx int, acc core.AccountRecord, lastUpdated string) error {
	number := acc.AccountNumber
	if number == "" {
		number = fmt.Sprintf("account_%d", idx)
	}
	entityID := DeriveEntityID(sourceID, number, acc.Currency)
	base := fmt.Sprintf("%s/sensor/%s/%s", discoveryDomain, p.prefix, entityID)

	unit := acc.Currency
	if unit == "" {
		unit = "UYU"
	}
	config := map[string]any{
		"name":                  displayName(sourceID) + " " + number,
		"unique_id":             entityID,
		"state_topic":           base + "/state",
		"json_attributes_topic": base + "/attributes",
		"unit_of_measurement":   unit,
		"device_class":          "monetary",
		"state_class":           "total",
		"icon":                  "mdi:bank",
		"device":                deviceInfo(sourceID),
	}
	if err := p.publishJSON(base+"/config", config); err != nil {
		return err
	}

	state := strconv.FormatFloat(stateValue(acc), 'f', -1, 64)
	if err := p.broker.Publish(base+"/state", []byte(state)); err != nil {
		return err
	}

	attrs := flattenAccount(acc)
	attrs["bank"] = sourceID
	attrs["last_updated"] = lastUpdated
	return p.publishJSON(base+"/attributes", attrs)
}

func (p *Publisher) publishJSON(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", topic, err)
	}
	return p.broker.Publish(topic, body)
}

// Republisher periodically re-reads the persisted snapshot and re-publishes
// it, so a restarted hub regains state without waiting for the next scrape.
// It runs independently of the synchronous publish after each scheduled run.
type Republisher struct {
	publisher *Publisher
	store     *snapshot.Store
	interval  time.Duration
	logger    *log.Logger
}

func NewRepublisher(publisher *Publisher, store *snapshot.Store, interval time.Duration) *Republisher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Republisher{publisher: publisher, store: store, interval: interval, logger: publisher.logger}
}

// Run blocks until ctx is cancelled. A missing snapshot or broker failure is
// logged and retried at the next tick.
func (r *Republisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Publish what we already have at startup.
	r.republish()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.republish()
		}
	}
}

func (r *Republisher) republish() {
	snap, err := r.store.Load()
	if errors.Is(err, snapshot.ErrNotYetAvailable) {
		return
	}
	if err != nil {
		r.logger.Error("Reading snapshot for republish failed", log.FieldError, err)
		return
	}
	if err := r.publisher.PublishSnapshot(snap); err != nil {
		r.logger.Error("MQTT republish failed", log.FieldError, err)
	}
}
