package config

import (
	"github.com/Masterminds/semver/v3"
	"github.com/kballard/go-shellquote"
	"github.com/teranos/clangcomplete/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Backend.Command == "" {
		return errors.New("backend.command cannot be empty")
	}
	if _, err := shellquote.Split(c.Backend.Command); err != nil {
		return errors.Wrapf(err, "backend.command is not a valid command line: %q", c.Backend.Command)
	}

	if c.Backend.ReadyTimeoutMS <= 0 {
		return errors.Newf("backend.ready_timeout_ms must be > 0, got %d", c.Backend.ReadyTimeoutMS)
	}

	// Alive timeout: 0 disables the watchdog, negative is invalid
	if c.Backend.AliveTimeoutMS < 0 {
		return errors.Newf("backend.alive_timeout_ms must be >= 0, got %d", c.Backend.AliveTimeoutMS)
	}

	if c.Backend.InitialBackoffMS < 0 {
		return errors.Newf("backend.initial_backoff_ms must be >= 0, got %d", c.Backend.InitialBackoffMS)
	}
	if c.Backend.MaxBackoffMS < c.Backend.InitialBackoffMS {
		return errors.Newf("backend.max_backoff_ms (%d) must be >= backend.initial_backoff_ms (%d)",
			c.Backend.MaxBackoffMS, c.Backend.InitialBackoffMS)
	}
	if c.Backend.RestartsPerMinute <= 0 {
		return errors.Newf("backend.restarts_per_minute must be > 0, got %d", c.Backend.RestartsPerMinute)
	}
	if c.Backend.RestartBurst <= 0 {
		return errors.Newf("backend.restart_burst must be > 0, got %d", c.Backend.RestartBurst)
	}
	if c.Backend.MaxRestartAttempts <= 0 {
		return errors.Newf("backend.max_restart_attempts must be > 0, got %d", c.Backend.MaxRestartAttempts)
	}

	if _, err := semver.NewConstraint(c.Backend.ProtocolConstraint); err != nil {
		return errors.Wrapf(err, "backend.protocol_constraint is not a valid semver constraint: %q", c.Backend.ProtocolConstraint)
	}

	if c.Completion.TimeoutMS <= 0 {
		return errors.Newf("completion.timeout_ms must be > 0, got %d", c.Completion.TimeoutMS)
	}

	return nil
}
