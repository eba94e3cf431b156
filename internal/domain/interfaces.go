package domain

// Scorer scores answer vectors for registered instruments. Implementations
// must be safe for concurrent use.
type Scorer interface {
	Score(instrumentID string, answers []int) (*ScoreResult, error)
	Instrument(instrumentID string) (*Instrument, error)
	IDs() []string
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetSessionConfig() *SessionConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
