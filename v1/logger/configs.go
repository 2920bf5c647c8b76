package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// DefaultServiceName is attached to every entry when Config.ServiceName is empty.
const DefaultServiceName = "tidepool-client"

// Config controls level and identity of the logger.
type Config struct {
	// Level is one of "debug", "info", "warning" or "error".
	// Anything else falls back to info.
	Level string `yaml:"level" envconfig:"TIDEPOOL_LOG_LEVEL"`

	// ServiceName is emitted as the "service" field on every entry.
	ServiceName string `yaml:"service_name" envconfig:"TIDEPOOL_SERVICE_NAME"`
}
