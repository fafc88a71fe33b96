// Package mqtt publishes snapshots to an MQTT broker using the Home
// Assistant discovery convention, so a subscribing hub auto-registers one
// entity per bank status and per account.
package mqtt

import (
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Broker is the minimal publishing surface the Publisher needs. All messages
// go out retained at QoS 1: the broker keeps the latest value and redelivers
// it to new subscribers.
type Broker interface {
	Publish(topic string, payload []byte) error
}

// Config holds broker connection settings.
type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	ClientID       string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// Client wraps the paho MQTT client with bounded connect/publish waits.
type Client struct {
	mqtt           paho.Client
	publishTimeout time.Duration
}

// NewClient builds the broker client and starts connecting. A broker that is
// down or still booting never fails construction: paho keeps retrying in the
// background, and Publish reports errors until the connection is up. Broker
// unavailability degrades publishing only, it never stops the service.
func NewClient(cfg Config) *Client {
	if cfg.ClientID == "" {
		cfg.ClientID = "bank-scraper"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}

	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetConnectRetry(true).
		SetConnectRetryInterval(cfg.ConnectTimeout).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if token.WaitTimeout(cfg.ConnectTimeout) && token.Error() == nil {
		slog.Info("Connected to MQTT broker", "host", cfg.Host, "port", cfg.Port, "client_id", cfg.ClientID)
	} else {
		slog.Warn("MQTT broker not reachable yet, retrying in background", "host", cfg.Host, "port", cfg.Port)
	}

	return &Client{mqtt: client, publishTimeout: cfg.PublishTimeout}
}

// Publish sends a retained QoS 1 message and waits for the broker ack. While
// the connection is down it fails fast so the publish cycle is abandoned and
// retried at the next republish tick.
func (c *Client) Publish(topic string, payload []byte) error {
	if !c.mqtt.IsConnectionOpen() {
		return fmt.Errorf("publish to %s: broker not connected", topic)
	}
	token := c.mqtt.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(c.publishTimeout) {
		return fmt.Errorf("publish to %s: timeout after %s", topic, c.publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight messages to drain.
func (c *Client) Close() {
	c.mqtt.Disconnect(250)
}
