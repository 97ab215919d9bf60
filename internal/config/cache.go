package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the public response cache.  When Enabled
// is false or no Redis client is configured, caching is disabled.  Methods is
// a comma separated list such as "GET,HEAD".
type CacheConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Methods      string        `mapstructure:"methods"`
	TTL          time.Duration `mapstructure:"ttl"`
	KeyStrategy  string        `mapstructure:"key_strategy"`
	Prefix       string        `mapstructure:"prefix"`
	MaxBodyBytes int           `mapstructure:"max_body_bytes"`
}

// MethodSet returns the upper-cased cacheable methods.
func (c CacheConfig) MethodSet() map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(c.Methods, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
