package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldClientIP  = "client_ip"
	FieldPath      = "path"
	FieldError     = "error"
	FieldSource    = "source"
	FieldBank      = "bank"
	FieldTopic     = "topic"
	FieldDuration  = "duration_ms"
	FieldAccounts  = "accounts"
	FieldNextRun   = "next_run"
	FieldDelay     = "delay"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentScrape    = "scrape"
	ComponentScheduler = "scheduler"
	ComponentMQTT      = "mqtt"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
)
