package config

import "time"

// Config represents the clangcomplete configuration
type Config struct {
	Backend    BackendConfig    `mapstructure:"backend" toml:"backend" json:"backend" yaml:"backend"`
	Completion CompletionConfig `mapstructure:"completion" toml:"completion" json:"completion" yaml:"completion"`
	Log        LogConfig        `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// BackendConfig configures the out-of-process completion backend and its supervision
type BackendConfig struct {
	// Command launches the backend; shell-quoted (e.g. "clangbackend --log-level debug")
	Command string            `mapstructure:"command" toml:"command" json:"command" yaml:"command"`
	Env     map[string]string `mapstructure:"env" toml:"env" json:"env,omitempty" yaml:"env,omitempty"`

	ReadyTimeoutMS int `mapstructure:"ready_timeout_ms" toml:"ready_timeout_ms" json:"ready_timeout_ms" yaml:"ready_timeout_ms"` // handshake wait after launch
	AliveTimeoutMS int `mapstructure:"alive_timeout_ms" toml:"alive_timeout_ms" json:"alive_timeout_ms" yaml:"alive_timeout_ms"` // 0 disables the hang watchdog

	// Restart policy
	InitialBackoffMS   int `mapstructure:"initial_backoff_ms" toml:"initial_backoff_ms" json:"initial_backoff_ms" yaml:"initial_backoff_ms"`
	MaxBackoffMS       int `mapstructure:"max_backoff_ms" toml:"max_backoff_ms" json:"max_backoff_ms" yaml:"max_backoff_ms"`
	RestartsPerMinute  int `mapstructure:"restarts_per_minute" toml:"restarts_per_minute" json:"restarts_per_minute" yaml:"restarts_per_minute"`
	RestartBurst       int `mapstructure:"restart_burst" toml:"restart_burst" json:"restart_burst" yaml:"restart_burst"`
	MaxRestartAttempts int `mapstructure:"max_restart_attempts" toml:"max_restart_attempts" json:"max_restart_attempts" yaml:"max_restart_attempts"` // consecutive failed launches before giving up

	// ProtocolConstraint is a semver constraint the backend's protocol version must satisfy
	ProtocolConstraint string `mapstructure:"protocol_constraint" toml:"protocol_constraint" json:"protocol_constraint" yaml:"protocol_constraint"`
}

// CompletionConfig configures completion requests
type CompletionConfig struct {
	TimeoutMS int `mapstructure:"timeout_ms" toml:"timeout_ms" json:"timeout_ms" yaml:"timeout_ms"`
}

// LogConfig configures log output
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
}

// ReadyTimeout returns the handshake timeout as a duration
func (b BackendConfig) ReadyTimeout() time.Duration {
	return time.Duration(b.ReadyTimeoutMS) * time.Millisecond
}

// AliveTimeout returns the hang watchdog timeout as a duration
func (b BackendConfig) AliveTimeout() time.Duration {
	return time.Duration(b.AliveTimeoutMS) * time.Millisecond
}

// InitialBackoff returns the first restart delay as a duration
func (b BackendConfig) InitialBackoff() time.Duration {
	return time.Duration(b.InitialBackoffMS) * time.Millisecond
}

// MaxBackoff returns the restart delay cap as a duration
func (b BackendConfig) MaxBackoff() time.Duration {
	return time.Duration(b.MaxBackoffMS) * time.Millisecond
}

// Timeout returns the asynchronous completion bound as a duration
func (c CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
