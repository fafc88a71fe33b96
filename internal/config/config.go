package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Scrape
	Banks          []string
	CredentialsDir string
	Timezone       string

	// Schedule
	ScheduleHours  []string
	RandomDelayMin int

	// Output
	OutputJSON string
	StateFile  string
	LogosDir   string
	ReportsDir string

	// History (optional; empty path disables the store)
	HistoryDBPath string

	// HTTP Server
	HTTPPort   string
	AllowedIPs []string

	// MQTT
	MQTTEnabled           bool
	MQTTBroker            string
	MQTTPort              string
	MQTTUser              string
	MQTTPass              string
	MQTTTopicPrefix       string
	MQTTRepublishInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		Banks:          getEnvList("BANKS"),
		CredentialsDir: getEnv("CREDENTIALS_DIRECTORY", ""),
		Timezone:       getEnv("TZ", ""),

		ScheduleHours:  getEnvListDefault("SCHEDULE_HOURS", []string{"07:00", "20:00"}),
		RandomDelayMin: getEnvInt("RANDOM_DELAY_MIN", 30),

		OutputJSON: getEnv("OUTPUT_JSON", "./data/accounts.json"),
		StateFile:  getEnv("STATE_FILE", "./data/last_run.txt"),
		LogosDir:   getEnv("LOGOS_DIR", "./bank-logos"),
		ReportsDir: getEnv("REPORTS_DIR", "./data/reports"),

		HistoryDBPath: getEnv("HISTORY_DB_PATH", ""),

		HTTPPort:   getEnv("HTTP_PORT", "8000"),
		AllowedIPs: getEnvList("ALLOWED_IPS"),

		MQTTEnabled:           getEnvBool("MQTT_ENABLED", false),
		MQTTBroker:            getEnv("MQTT_BROKER", ""),
		MQTTPort:              getEnv("MQTT_PORT", "1883"),
		MQTTUser:              getEnv("MQTT_USER", ""),
		MQTTPass:              getEnv("MQTT_PASS", ""),
		MQTTTopicPrefix:       getEnv("MQTT_TOPIC_PREFIX", "banks"),
		MQTTRepublishInterval: getEnvDuration("MQTT_REPUBLISH_INTERVAL", time.Minute),
	}

	return cfg
}

// JitterMax returns the random start delay ceiling as a duration.
func (c *Config) JitterMax() time.Duration {
	return time.Duration(c.RandomDelayMin) * time.Minute
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.HTTPPort); err != nil {
		errors = append(errors, fmt.Sprintf("invalid HTTP port '%s': must be a number", c.HTTPPort))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", port))
	}

	if len(c.ScheduleHours) == 0 {
		errors = append(errors, "schedule must contain at least one HH:MM time")
	}
	for _, h := range c.ScheduleHours {
		if !validTimeOfDay(h) {
			errors = append(errors, fmt.Sprintf("invalid schedule time '%s': must be HH:MM", h))
		}
	}

	if c.RandomDelayMin < 0 {
		errors = append(errors, fmt.Sprintf("invalid random delay %d: must not be negative", c.RandomDelayMin))
	}

	if c.OutputJSON == "" {
		errors = append(errors, "output JSON path cannot be empty")
	}
	if c.StateFile == "" {
		errors = append(errors, "state file path cannot be empty")
	}

	if c.MQTTEnabled {
		if c.MQTTBroker == "" {
			errors = append(errors, "MQTT broker host cannot be empty when MQTT is enabled")
		}
		if port, err := strconv.Atoi(c.MQTTPort); err != nil {
			errors = append(errors, fmt.Sprintf("invalid MQTT port '%s': must be a number", c.MQTTPort))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid MQTT port %d: must be between 1 and 65535", port))
		}
		if c.MQTTTopicPrefix == "" {
			errors = append(errors, "MQTT topic prefix cannot be empty when MQTT is enabled")
		}
		if c.MQTTRepublishInterval < time.Second {
			errors = append(errors, fmt.Sprintf("invalid MQTT republish interval %v: must be at least 1 second", c.MQTTRepublishInterval))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func validTimeOfDay(s string) bool {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return false
	}
	return true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, trimming whitespace and
// dropping empty entries. An unset or empty variable yields nil.
func getEnvList(key string) []string {
	return splitList(os.Getenv(key))
}

func getEnvListDefault(key string, defaultValue []string) []string {
	if list := splitList(os.Getenv(key)); len(list) > 0 {
		return list
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
