package config

import "time"

// Exists reports whether key is set in any configuration source.
func (c *Config) Exists(key string) bool {
	if c.k == nil {
		return false
	}
	return c.k.Exists(key)
}

// GetString returns the value at key or defaultValue when it is unset.
func (c *Config) GetString(key string, defaultValue ...string) string {
	if c.Exists(key) {
		return c.k.String(key)
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetInt returns the value at key or defaultValue when it is unset.
func (c *Config) GetInt(key string, defaultValue ...int) int {
	if c.Exists(key) {
		return c.k.Int(key)
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetBool returns the value at key or defaultValue when it is unset.
func (c *Config) GetBool(key string, defaultValue ...bool) bool {
	if c.Exists(key) {
		return c.k.Bool(key)
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return false
}

// GetDuration returns the value at key or defaultValue when it is unset.
func (c *Config) GetDuration(key string, defaultValue ...time.Duration) time.Duration {
	if c.Exists(key) {
		return c.k.Duration(key)
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}
