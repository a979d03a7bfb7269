package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *RelayConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if !strings.HasPrefix(c.Server.WSPath, "/") {
		return fmt.Errorf("server.ws_path must start with '/', got %q", c.Server.WSPath)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be > 0")
	}

	if c.Relay.SendBufferSize < 1 {
		return errors.New("relay.send_buffer_size must be >= 1")
	}
	if c.Relay.MaxMessageSize < 1 {
		return errors.New("relay.max_message_size must be >= 1")
	}
	if c.Relay.PongTimeout <= c.Relay.PingInterval {
		return errors.New("relay.pong_timeout must be greater than relay.ping_interval")
	}
	if c.Relay.ChatBufferSize < 1 {
		return errors.New("relay.chat_buffer_size must be >= 1")
	}

	if c.ArchiveEnabled() {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
		if c.Archive.BatchSize < 1 {
			return errors.New("archive.batch_size must be >= 1")
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Port < 1 || db.Port > 65535 {
		return fmt.Errorf("%s.port must be 1-65535", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns must be <= %s.max_conns", prefix, prefix)
	}
	return nil
}
