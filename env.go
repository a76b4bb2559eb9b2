package idcache

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/unkn0wn-root/idcache/credential"
)

// EnvConfig is the environment-driven configuration surface.
type EnvConfig struct {
	APIBase        string        `env:"IDCACHE_API_BASE"`
	CredentialName string        `env:"IDCACHE_CREDENTIAL_NAME" envDefault:"auth_token"`
	CookieURL      string        `env:"IDCACHE_COOKIE_URL"` // "" => APIBase
	CookieDomain   string        `env:"IDCACHE_COOKIE_DOMAIN"`
	FetchTimeout   time.Duration `env:"IDCACHE_FETCH_TIMEOUT"`
	RetryMax       int           `env:"IDCACHE_RETRY_MAX" envDefault:"0"`
}

// LoadEnv loads EnvConfig from the process environment.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// JarStore builds the cookie-backed credential store for CookieURL.
func (e EnvConfig) JarStore() (*credential.JarStore, error) {
	return credential.NewJarStore(coalesce(e.CookieURL, e.APIBase), credential.JarOptions{Domain: e.CookieDomain})
}

// Options maps e onto client Options using store for the credential slot.
func (e EnvConfig) Options(store credential.Store) Options {
	return Options{
		Store:          store,
		APIBase:        e.APIBase,
		CredentialName: e.CredentialName,
		FetchTimeout:   e.FetchTimeout,
	}
}

// IdentityOptions maps e onto NewIdentity options.
func (e EnvConfig) IdentityOptions() IdentityOptions {
	return IdentityOptions{RetryMax: e.RetryMax}
}
