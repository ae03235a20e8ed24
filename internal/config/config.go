package config

import (
	"os"
	"strconv"
	"time"
)

// ServerConfig holds all runtime configuration for the chat server.
type ServerConfig struct {
	// Server settings
	Addr           string `json:"addr"`
	MaxConnections int    `json:"max_connections"`

	// MongoDB settings
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	// JWT settings
	JWTSecret string `json:"-"`

	// Connection lifecycle settings
	HeartbeatInterval time.Duration `json:"heartbeat_interval"`
	WriteTimeout      time.Duration `json:"write_timeout"`
	ReadLimit         int64         `json:"read_limit"`
	SendBufferSize    int           `json:"send_buffer_size"`

	// History pagination settings
	HistoryDefaultLimit int `json:"history_default_limit"`
	HistoryMaxLimit     int `json:"history_max_limit"`
}

// DefaultServerConfig returns the default configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:                ":9090",
		MaxConnections:      10000,
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "jobboard_chat",
		JWTSecret:           "change-me-in-production",
		HeartbeatInterval:   30 * time.Second,
		WriteTimeout:        10 * time.Second,
		ReadLimit:           64 * 1024,
		SendBufferSize:      256,
		HistoryDefaultLimit: 50,
		HistoryMaxLimit:     200,
	}
}

// LoadConfig builds configuration from defaults overridden by
// environment variables.
func LoadConfig() *ServerConfig {
	cfg := DefaultServerConfig()
	cfg.loadFromEnv()
	return cfg
}

// loadFromEnv overrides configuration from environment variables.
func (c *ServerConfig) loadFromEnv() {
	if addr := os.Getenv("CHAT_ADDR"); addr != "" {
		c.Addr = addr
	}

	if maxConn := os.Getenv("CHAT_MAX_CONNECTIONS"); maxConn != "" {
		if val, err := strconv.Atoi(maxConn); err == nil {
			c.MaxConnections = val
		}
	}

	if uri := os.Getenv("CHAT_MONGO_URI"); uri != "" {
		c.MongoURI = uri
	}

	if db := os.Getenv("CHAT_MONGO_DATABASE"); db != "" {
		c.MongoDatabase = db
	}

	if secret := os.Getenv("CHAT_JWT_SECRET"); secret != "" {
		c.JWTSecret = secret
	}

	if heartbeat := os.Getenv("CHAT_HEARTBEAT_INTERVAL"); heartbeat != "" {
		if val, err := time.ParseDuration(heartbeat); err == nil {
			c.HeartbeatInterval = val
		}
	}

	if writeTimeout := os.Getenv("CHAT_WRITE_TIMEOUT"); writeTimeout != "" {
		if val, err := time.ParseDuration(writeTimeout); err == nil {
			c.WriteTimeout = val
		}
	}

	if readLimit := os.Getenv("CHAT_READ_LIMIT"); readLimit != "" {
		if val, err := strconv.ParseInt(readLimit, 10, 64); err == nil {
			c.ReadLimit = val
		}
	}

	if bufSize := os.Getenv("CHAT_SEND_BUFFER_SIZE"); bufSize != "" {
		if val, err := strconv.Atoi(bufSize); err == nil {
			c.SendBufferSize = val
		}
	}

	if limit := os.Getenv("CHAT_HISTORY_DEFAULT_LIMIT"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.HistoryDefaultLimit = val
		}
	}

	if limit := os.Getenv("CHAT_HISTORY_MAX_LIMIT"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.HistoryMaxLimit = val
		}
	}
}
