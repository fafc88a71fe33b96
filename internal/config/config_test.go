package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		ScheduleHours:         []string{"07:00", "20:00"},
		RandomDelayMin:        30,
		OutputJSON:            "./data/accounts.json",
		StateFile:             "./data/last_run.txt",
		LogosDir:              "./bank-logos",
		HTTPPort:              "8000",
		MQTTPort:              "1883",
		MQTTTopicPrefix:       "banks",
		MQTTRepublishInterval: time.Minute,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid config with MQTT enabled",
			mutate: func(c *Config) {
				c.MQTTEnabled = true
				c.MQTTBroker = "mqtt.local"
			},
			wantErr: false,
		},
		{
			name:        "invalid HTTP port - non-numeric",
			mutate:      func(c *Config) { c.HTTPPort = "abc" },
			wantErr:     true,
			errorString: "invalid HTTP port 'abc': must be a number",
		},
		{
			name:        "invalid HTTP port - out of range",
			mutate:      func(c *Config) { c.HTTPPort = "70000" },
			wantErr:     true,
			errorString: "invalid HTTP port 70000: must be between 1 and 65535",
		},
		{
			name:        "empty schedule",
			mutate:      func(c *Config) { c.ScheduleHours = nil },
			wantErr:     true,
			errorString: "schedule must contain at least one HH:MM time",
		},
		{
			name:        "malformed schedule time",
			mutate:      func(c *Config) { c.ScheduleHours = []string{"07:00", "25:99"} },
			wantErr:     true,
			errorString: "invalid schedule time '25:99': must be HH:MM",
		},
		{
			name:        "schedule time without minutes",
			mutate:      func(c *Config) { c.ScheduleHours = []string{"7"} },
			wantErr:     true,
			errorString: "invalid schedule time '7': must be HH:MM",
		},
		{
			name:        "negative random delay",
			mutate:      func(c *Config) { c.RandomDelayMin = -5 },
			wantErr:     true,
			errorString: "invalid random delay -5: must not be negative",
		},
		{
			name:        "empty output path",
			mutate:      func(c *Config) { c.OutputJSON = "" },
			wantErr:     true,
			errorString: "output JSON path cannot be empty",
		},
		{
			name:        "empty state file path",
			mutate:      func(c *Config) { c.StateFile = "" },
			wantErr:     true,
			errorString: "state file path cannot be empty",
		},
		{
			name: "MQTT enabled without broker",
			mutate: func(c *Config) {
				c.MQTTEnabled = true
				c.MQTTBroker = ""
			},
			wantErr:     true,
			errorString: "MQTT broker host cannot be empty when MQTT is enabled",
		},
		{
			name: "MQTT enabled with bad port",
			mutate: func(c *Config) {
				c.MQTTEnabled = true
				c.MQTTBroker = "mqtt.local"
				c.MQTTPort = "nope"
			},
			wantErr:     true,
			errorString: "invalid MQTT port 'nope': must be a number",
		},
		{
			name: "MQTT republish interval too short",
			mutate: func(c *Config) {
				c.MQTTEnabled = true
				c.MQTTBroker = "mqtt.local"
				c.MQTTRepublishInterval = 100 * time.Millisecond
			},
			wantErr:     true,
			errorString: "invalid MQTT republish interval 100ms: must be at least 1 second",
		},
		{
			name: "MQTT settings ignored when disabled",
			mutate: func(c *Config) {
				c.MQTTEnabled = false
				c.MQTTBroker = ""
				c.MQTTPort = "nope"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else {
				if err != nil {
					t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			}
		})
	}
}

func TestLoad(t *testing.T) {
	envKeys := []string{
		"BANKS", "CREDENTIALS_DIRECTORY", "TZ", "SCHEDULE_HOURS",
		"RANDOM_DELAY_MIN", "OUTPUT_JSON", "STATE_FILE", "LOGOS_DIR",
		"REPORTS_DIR", "HISTORY_DB_PATH", "HTTP_PORT", "ALLOWED_IPS", "MQTT_ENABLED",
		"MQTT_BROKER", "MQTT_PORT", "MQTT_USER", "MQTT_PASS",
		"MQTT_TOPIC_PREFIX", "MQTT_REPUBLISH_INTERVAL",
	}

	t.Run("default values", func(t *testing.T) {
		for _, key := range envKeys {
			t.Setenv(key, "")
		}

		cfg := Load()

		if len(cfg.Banks) != 0 {
			t.Errorf("Load() Banks = %v, want empty", cfg.Banks)
		}
		if got := strings.Join(cfg.ScheduleHours, ","); got != "07:00,20:00" {
			t.Errorf("Load() ScheduleHours = %v, want 07:00,20:00", got)
		}
		if cfg.RandomDelayMin != 30 {
			t.Errorf("Load() RandomDelayMin = %v, want 30", cfg.RandomDelayMin)
		}
		if cfg.OutputJSON != "./data/accounts.json" {
			t.Errorf("Load() OutputJSON = %v, want ./data/accounts.json", cfg.OutputJSON)
		}
		if cfg.StateFile != "./data/last_run.txt" {
			t.Errorf("Load() StateFile = %v, want ./data/last_run.txt", cfg.StateFile)
		}
		if cfg.LogosDir != "./bank-logos" {
			t.Errorf("Load() LogosDir = %v, want ./bank-logos", cfg.LogosDir)
		}
		if cfg.ReportsDir != "./data/reports" {
			t.Errorf("Load() ReportsDir = %v, want ./data/reports", cfg.ReportsDir)
		}
		if cfg.HistoryDBPath != "" {
			t.Errorf("Load() HistoryDBPath = %v, want empty", cfg.HistoryDBPath)
		}
		if cfg.HTTPPort != "8000" {
			t.Errorf("Load() HTTPPort = %v, want 8000", cfg.HTTPPort)
		}
		if cfg.MQTTEnabled {
			t.Error("Load() MQTTEnabled = true, want false")
		}
		if cfg.MQTTPort != "1883" {
			t.Errorf("Load() MQTTPort = %v, want 1883", cfg.MQTTPort)
		}
		if cfg.MQTTTopicPrefix != "banks" {
			t.Errorf("Load() MQTTTopicPrefix = %v, want banks", cfg.MQTTTopicPrefix)
		}
		if cfg.MQTTRepublishInterval != time.Minute {
			t.Errorf("Load() MQTTRepublishInterval = %v, want 1m", cfg.MQTTRepublishInterval)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		for _, key := range envKeys {
			t.Setenv(key, "")
		}
		t.Setenv("BANKS", "brou, itau ,santander")
		t.Setenv("SCHEDULE_HOURS", "06:30,12:00,22:15")
		t.Setenv("RANDOM_DELAY_MIN", "5")
		t.Setenv("ALLOWED_IPS", "192.168.1.10,10.0.0.2")
		t.Setenv("MQTT_ENABLED", "true")
		t.Setenv("MQTT_BROKER", "broker.local")
		t.Setenv("MQTT_REPUBLISH_INTERVAL", "45s")

		cfg := Load()

		if got := strings.Join(cfg.Banks, ","); got != "brou,itau,santander" {
			t.Errorf("Load() Banks = %v, want brou,itau,santander", got)
		}
		if got := strings.Join(cfg.ScheduleHours, ","); got != "06:30,12:00,22:15" {
			t.Errorf("Load() ScheduleHours = %v", got)
		}
		if cfg.RandomDelayMin != 5 {
			t.Errorf("Load() RandomDelayMin = %v, want 5", cfg.RandomDelayMin)
		}
		if len(cfg.AllowedIPs) != 2 || cfg.AllowedIPs[0] != "192.168.1.10" {
			t.Errorf("Load() AllowedIPs = %v", cfg.AllowedIPs)
		}
		if !cfg.MQTTEnabled {
			t.Error("Load() MQTTEnabled = false, want true")
		}
		if cfg.MQTTBroker != "broker.local" {
			t.Errorf("Load() MQTTBroker = %v, want broker.local", cfg.MQTTBroker)
		}
		if cfg.MQTTRepublishInterval != 45*time.Second {
			t.Errorf("Load() MQTTRepublishInterval = %v, want 45s", cfg.MQTTRepublishInterval)
		}
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		for _, key := range envKeys {
			t.Setenv(key, "")
		}
		t.Setenv("RANDOM_DELAY_MIN", "soon")
		t.Setenv("MQTT_REPUBLISH_INTERVAL", "sometimes")

		cfg := Load()

		if cfg.RandomDelayMin != 30 {
			t.Errorf("Load() RandomDelayMin = %v, want 30", cfg.RandomDelayMin)
		}
		if cfg.MQTTRepublishInterval != time.Minute {
			t.Errorf("Load() MQTTRepublishInterval = %v, want 1m", cfg.MQTTRepublishInterval)
		}
	})
}

func TestJitterMax(t *testing.T) {
	cfg := validConfig()
	if got := cfg.JitterMax(); got != 30*time.Minute {
		t.Errorf("JitterMax() = %v, want 30m", got)
	}
	cfg.RandomDelayMin = 0
	if got := cfg.JitterMax(); got != 0 {
		t.Errorf("JitterMax() = %v, want 0", got)
	}
}
