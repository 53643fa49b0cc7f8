package preview

import (
	"time"

	"github.com/space-wizards/space-station-14-sub095/floodfill"
)

// Config holds preview server configuration
type Config struct {
	// Address to bind, e.g. ":8080"; ":0" picks a free port
	Address string

	// Connection limits; further upgrades get 503
	MaxClients int

	// Timing
	ReadTimeout       time.Duration // Closed when no message or pong arrives in time
	WriteTimeout      time.Duration
	HeartbeatInterval time.Duration // Must stay below ReadTimeout
	RingDelay         time.Duration // Pause between iteration updates; 0 sends them back to back

	// Buffer sizes
	ReadBufferSize   int
	WriteBufferSize  int
	SendQueueSize    int
	RequestQueueSize int // Requests waiting behind the one being streamed; more are refused
	MaxMessageSize   int64

	// Ceilings on client-supplied flood caps; zero or larger requests are clamped to these
	MaxIterations int
	MaxArea       int
}

// DefaultConfig returns the defaults used by flood-server
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		MaxClients:        64,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 54 * time.Second,
		RingDelay:         0,
		ReadBufferSize:    1024,
		WriteBufferSize:   16 * 1024,
		SendQueueSize:     256,
		RequestQueueSize:  4,
		MaxMessageSize:    4096,
		MaxIterations:     floodfill.DefaultMaxIterations,
		MaxArea:           floodfill.DefaultMaxArea,
	}
}

// normalized fills zero or negative fields from DefaultConfig
func (c Config) normalized() *Config {
	def := DefaultConfig()
	if c.Address == "" {
		c.Address = def.Address
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.HeartbeatInterval <= 0 || c.HeartbeatInterval >= c.ReadTimeout {
		c.HeartbeatInterval = c.ReadTimeout * 9 / 10
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = def.SendQueueSize
	}
	if c.RequestQueueSize <= 0 {
		c.RequestQueueSize = def.RequestQueueSize
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.MaxArea <= 0 {
		c.MaxArea = def.MaxArea
	}
	return &c
}

// limit clamps the flood caps of p to the configured ceilings
func (c *Config) limit(p floodfill.Params) floodfill.Params {
	if p.MaxIterations <= 0 || p.MaxIterations > c.MaxIterations {
		p.MaxIterations = c.MaxIterations
	}
	if p.MaxArea <= 0 || p.MaxArea > c.MaxArea {
		p.MaxArea = c.MaxArea
	}
	return p
}
