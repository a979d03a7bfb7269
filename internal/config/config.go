package config

import "time"

// RelayConfig is the root configuration for a relay instance.
type RelayConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Server   ServerConfig   `yaml:"server"`
	Relay    PeersConfig    `yaml:"relay"`
	Database DBConfig       `yaml:"database"`
	Archive  ArchiveConfig  `yaml:"archive"`
}

// InstanceConfig identifies this relay.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`             // e.g. ":8080"
	WSPath          string        `yaml:"ws_path"`          // upgrade endpoint, e.g. "/ws"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // graceful drain window
}

// PeersConfig holds per-connection relay settings.
type PeersConfig struct {
	SendBufferSize int           `yaml:"send_buffer_size"` // outbound queue per connection
	MaxMessageSize int64         `yaml:"max_message_size"` // inbound read limit (bytes)
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	PongTimeout    time.Duration `yaml:"pong_timeout"` // max silence before the connection is considered dead
	ChatBufferSize int           `yaml:"chat_buffer_size"`
}

// DBConfig holds the Postgres connection for the chat archive.
// An empty host disables archiving entirely.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ArchiveConfig holds chat transcript writer settings.
type ArchiveConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}
