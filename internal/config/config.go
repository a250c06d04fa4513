package config

import (
	"fmt"
	"time"

	"github.com/scalefx/hubsync/internal/domain"
)

// Config represents the complete configuration for hubsync
type Config struct {
	// Serial connection
	Serial SerialConfig `mapstructure:"serial"`

	// Transfer engine tuning
	Transfer TransferConfig `mapstructure:"transfer"`

	// Sync run behavior
	Sync SyncConfig `mapstructure:"sync"`

	// Logging output
	Logging LoggingConfig `mapstructure:"logging"`
}

// SerialConfig configures the device connection
type SerialConfig struct {
	// Port is the serial device; empty means auto-detect
	Port string `mapstructure:"port"`
	Baud int    `mapstructure:"baud"`
}

// TransferConfig tunes the chunked transfer engine
type TransferConfig struct {
	Verb            string        `mapstructure:"verb"`
	AckMode         string        `mapstructure:"ack_mode"`
	ChunkSize       int           `mapstructure:"chunk_size"`
	ReadyTimeout    time.Duration `mapstructure:"ready_timeout"`
	ChunkTimeout    time.Duration `mapstructure:"chunk_timeout"`
	CompleteTimeout time.Duration `mapstructure:"complete_timeout"`
}

// SyncConfig configures sync runs
type SyncConfig struct {
	// Source is the local tree to mirror
	Source string `mapstructure:"source"`

	// Dest is the device folder, e.g. /sounds
	Dest string `mapstructure:"dest"`

	// DeleteOrphans removes device files with no local counterpart
	DeleteOrphans bool `mapstructure:"delete_orphans"`
}

// LoggingConfig maps onto logger.Config
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	File    string `mapstructure:"file"`
	MaxSize int    `mapstructure:"max_size_mb"`
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("%w: baud must be positive, got %d", domain.ErrConfigInvalid, c.Serial.Baud)
	}

	if !domain.AckMode(c.Transfer.AckMode).IsValid() {
		return fmt.Errorf("%w: unknown ack mode %q", domain.ErrConfigInvalid, c.Transfer.AckMode)
	}

	switch c.Transfer.ChunkSize {
	case 64, 128, 512:
	default:
		return fmt.Errorf("%w: chunk size must be 64, 128 or 512, got %d",
			domain.ErrConfigInvalid, c.Transfer.ChunkSize)
	}

	if c.Transfer.Verb == "" {
		return fmt.Errorf("%w: transfer verb cannot be empty", domain.ErrConfigInvalid)
	}

	if c.Sync.Dest == "" {
		return fmt.Errorf("%w: sync dest cannot be empty", domain.ErrConfigInvalid)
	}

	return nil
}
