// Package inspect imports table declarations from a live PostgreSQL
// database, so hand-written queries can be analyzed against a real schema.
// It reads catalog metadata only; it never executes user queries.
package inspect

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the connection settings for the inspected database.
type Config struct {
	Host           string            `json:"host" yaml:"host"`
	Port           int               `json:"port" yaml:"port"`
	Database       string            `json:"database" yaml:"database"`
	Username       string            `json:"username" yaml:"username"`
	Password       string            `json:"password" yaml:"password"`
	SSLMode        string            `json:"ssl_mode" yaml:"ssl_mode"`
	Params         map[string]string `json:"params" yaml:"params"`
	ConnectTimeout time.Duration     `json:"connect_timeout" yaml:"connect_timeout"`
	Retry          RetryOptions      `json:"retry" yaml:"retry"`
}

// Validate checks the settings a connection cannot proceed without.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	return nil
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	var dsn strings.Builder

	dsn.WriteString("postgres://")

	if c.Username != "" {
		dsn.WriteString(url.QueryEscape(c.Username))
		if c.Password != "" {
			dsn.WriteString(":")
			dsn.WriteString(url.QueryEscape(c.Password))
		}
		dsn.WriteString("@")
	}

	dsn.WriteString(c.Host)
	if c.Port > 0 {
		dsn.WriteString(":")
		dsn.WriteString(strconv.Itoa(c.Port))
	}
	if c.Database != "" {
		dsn.WriteString("/")
		dsn.WriteString(url.PathEscape(c.Database))
	}

	params := make(map[string]string, len(c.Params)+1)
	for k, v := range c.Params {
		if v != "" {
			params[k] = v
		}
	}
	if c.SSLMode != "" {
		params["sslmode"] = c.SSLMode
	}

	if len(params) > 0 {
		dsn.WriteString("?")
		first := true
		for key, value := range params {
			if !first {
				dsn.WriteString("&")
			}
			dsn.WriteString(url.QueryEscape(key))
			dsn.WriteString("=")
			dsn.WriteString(url.QueryEscape(value))
			first = false
		}
	}

	return dsn.String()
}
