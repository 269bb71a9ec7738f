package syncconfig

import "time"

// DefaultIntervalMinutes is the auto-sync period used when none is set.
const DefaultIntervalMinutes = 30

// Config is the persisted remote sync state.
type Config struct {
	EndpointURL         string     `json:"endpointUrl"`
	AutoSync            bool       `json:"autoSync"`
	SyncIntervalMinutes int        `json:"syncInterval"`
	LastSync            *time.Time `json:"lastSync"`
}

// Default returns a disconnected configuration.
func Default() Config {
	return Config{SyncIntervalMinutes: DefaultIntervalMinutes}
}

// Connected reports whether an endpoint is configured.
func (c Config) Connected() bool {
	return c.EndpointURL != ""
}
