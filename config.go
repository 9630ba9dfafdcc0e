package arbor

import (
	"fmt"
	"math"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultCapacity is the arena capacity used when Config.Capacity is zero.
const DefaultCapacity = 4096

// Config sizes a Scene. The arena is allocated once from these values and
// never grows, so Capacity must cover the largest entity count the scene will
// hold at one time.
type Config struct {
	// Capacity is the number of transform records the arena can hold.
	Capacity int `toml:"capacity"`
	// ScratchReserve is the number of extra slots allocated beyond Capacity.
	// A relocation saves the moving subtree above the high-water mark, so it
	// needs HighWater + subtree size <= Capacity + ScratchReserve; unused
	// capacity serves as scratch too. Zero means "same as Capacity", which
	// covers any relocation.
	ScratchReserve int `toml:"scratch_reserve"`
	// Debug enables invariant checking after every mutation.
	Debug bool `toml:"debug"`
	// LogLevel is a charmbracelet/log level name ("debug", "info", "warn", ...).
	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns the configuration NewScene uses for zero fields.
func DefaultConfig() Config {
	return Config{
		Capacity: DefaultCapacity,
		LogLevel: "warn",
	}
}

func (c Config) withDefaults() Config {
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.ScratchReserve == 0 {
		c.ScratchReserve = c.Capacity
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	return c
}

// Validate reports a configuration that NewScene would reject.
func (c Config) Validate() error {
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must not be negative, got %d", c.Capacity)
	}
	if c.Capacity > math.MaxInt32 {
		return fmt.Errorf("capacity must not exceed %d, got %d", math.MaxInt32, c.Capacity)
	}
	if c.ScratchReserve < 0 {
		return fmt.Errorf("scratch_reserve must not be negative, got %d", c.ScratchReserve)
	}
	return nil
}

// LoadConfig reads a TOML scene configuration. Missing keys keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a TOML scene configuration from memory.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
