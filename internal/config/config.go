// Package config loads the example consumer binary's session
// configuration from the environment, the way the teacher's cmd
// package assembled its own Config from CLI flags.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/cbrgm/hclocal/internal/session"
)

// SessionConfig is the environment-loaded shape of session.Config. It
// exists only for cmd/hclocal; internal/session itself knows nothing
// about env vars.
type SessionConfig struct {
	Host                   string        `env:"HCLOCAL_HOST,required"`
	Mode                   string        `env:"HCLOCAL_MODE" envDefault:"AES"`
	PSK64                  string        `env:"HCLOCAL_PSK64,required"`
	IV64                   string        `env:"HCLOCAL_IV64"`
	PSKIdentity            string        `env:"HCLOCAL_PSK_IDENTITY"`
	TLSCipherString        string        `env:"HCLOCAL_TLS_CIPHER"`
	AppName                string        `env:"HCLOCAL_APP_NAME" envDefault:"hclocal"`
	AppID                  string        `env:"HCLOCAL_APP_ID" envDefault:"hclocal"`
	KeepaliveEnabled       bool          `env:"HCLOCAL_KEEPALIVE_ENABLED" envDefault:"true"`
	KeepaliveIdleTimeout   time.Duration `env:"HCLOCAL_KEEPALIVE_IDLE_TIMEOUT" envDefault:"60s"`
	KeepaliveProbeInterval time.Duration `env:"HCLOCAL_KEEPALIVE_PROBE_INTERVAL" envDefault:"10s"`
	ConnectTimeout         time.Duration `env:"HCLOCAL_CONNECT_TIMEOUT" envDefault:"30s"`
	LogLevel               string        `env:"HCLOCAL_LOG_LEVEL" envDefault:"info"`
}

// Load parses SessionConfig from the process environment.
func Load() (SessionConfig, error) {
	var cfg SessionConfig
	if err := env.Parse(&cfg); err != nil {
		return SessionConfig{}, err
	}
	return cfg, nil
}

// ToSessionConfig translates the environment-loaded shape into
// session.Config, resolving the mode string into session.Mode.
func (c SessionConfig) ToSessionConfig() session.Config {
	mode := session.ModeAES
	if c.Mode == "TLS_PSK" {
		mode = session.ModeTLSPSK
	}
	return session.Config{
		Host:                   c.Host,
		Mode:                   mode,
		PSK64:                  c.PSK64,
		IV64:                   c.IV64,
		PSKIdentity:            c.PSKIdentity,
		TLSCipherString:        c.TLSCipherString,
		AppName:                c.AppName,
		AppID:                  c.AppID,
		KeepaliveEnabled:       c.KeepaliveEnabled,
		KeepaliveIdleTimeout:   c.KeepaliveIdleTimeout,
		KeepaliveProbeInterval: c.KeepaliveProbeInterval,
		ConnectTimeout:         c.ConnectTimeout,
	}
}
