package mqtt

import (
	"testing"
	"time"
)

func TestNewClientToleratesUnreachableBroker(t *testing.T) {
	// Port 1 on loopback refuses immediately; construction must still
	// succeed so a broker booting slower than the scraper cannot take the
	// service down.
	client := NewClient(Config{
		Host:           "127.0.0.1",
		Port:           1,
		ConnectTimeout: 50 * time.Millisecond,
		PublishTimeout: 50 * time.Millisecond,
	})
	if client == nil {
		t.Fatal("NewClient() returned nil for unreachable broker")
	}
	t.Cleanup(client.Close)

	if err := client.Publish("bank_scraper/last_update", []byte("x")); err == nil {
		t.Fatal("Publish() expected an error while the broker is unreachable")
	}
}
