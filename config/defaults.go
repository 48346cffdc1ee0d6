package config

import (
	"github.com/spf13/viper"
	"github.com/teranos/clangcomplete/version"
)

// Default values
const (
	DefaultBackendCommand      = "clangbackend"
	DefaultCompletionTimeoutMS = 5000 // async completion bound
	DefaultReadyTimeoutMS      = 10000
	DefaultAliveTimeoutMS      = 10000
	DefaultInitialBackoffMS    = 100
	DefaultMaxBackoffMS        = 5000
	DefaultRestartsPerMinute   = 10
	DefaultRestartBurst        = 3
	DefaultMaxRestartAttempts  = 5
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend.command", DefaultBackendCommand)
	v.SetDefault("backend.ready_timeout_ms", DefaultReadyTimeoutMS)
	v.SetDefault("backend.alive_timeout_ms", DefaultAliveTimeoutMS)
	v.SetDefault("backend.initial_backoff_ms", DefaultInitialBackoffMS)
	v.SetDefault("backend.max_backoff_ms", DefaultMaxBackoffMS)
	v.SetDefault("backend.restarts_per_minute", DefaultRestartsPerMinute)
	v.SetDefault("backend.restart_burst", DefaultRestartBurst)
	v.SetDefault("backend.max_restart_attempts", DefaultMaxRestartAttempts)
	v.SetDefault("backend.protocol_constraint", version.DefaultProtocolConstraint)

	v.SetDefault("completion.timeout_ms", DefaultCompletionTimeoutMS)

	v.SetDefault("log.json", false)
}

// Default returns a configuration populated only from defaults
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}
