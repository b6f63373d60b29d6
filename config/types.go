package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Config is the areatrip.yml configuration.
type Config struct {
	Version   string          `yaml:"version" toml:"version" jsonschema:"description=Configuration version (e.g. '1.0')"`
	Store     StoreConfig     `yaml:"store,omitempty" toml:"store,omitempty" jsonschema:"description=Document store the trips are written to"`
	Trips     TripsConfig     `yaml:"trips,omitempty" toml:"trips,omitempty" jsonschema:"description=Trip write behaviour and draft defaults"`
	Session   SessionConfig   `yaml:"session,omitempty" toml:"session,omitempty" jsonschema:"description=Where the signed-in identity is kept"`
	Areas     AreasConfig     `yaml:"areas,omitempty" toml:"areas,omitempty" jsonschema:"description=Area collection loaded at startup"`
	Bridge    BridgeConfig    `yaml:"bridge,omitempty" toml:"bridge,omitempty" jsonschema:"description=Websocket bridge for the map widget"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty" toml:"telemetry,omitempty" jsonschema:"description=OpenTelemetry trace export"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" jsonschema:"-"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	// Backend is "memory", "sqlite" or "diskv".
	Backend string `yaml:"backend,omitempty" toml:"backend,omitempty" env:"AREATRIP_STORE_BACKEND" jsonschema:"enum=memory,enum=sqlite,enum=diskv"`
	// Path is the database file (sqlite) or base directory (diskv).
	Path string `yaml:"path,omitempty" toml:"path,omitempty" env:"AREATRIP_STORE_PATH"`
}

// TripsConfig controls how trips are written.
type TripsConfig struct {
	// WriteMode is "two-phase" (default) or "atomic".
	WriteMode   string `yaml:"write_mode,omitempty" toml:"write_mode,omitempty" env:"AREATRIP_TRIPS_WRITE_MODE" jsonschema:"enum=two-phase,enum=atomic"`
	DefaultName string `yaml:"default_name,omitempty" toml:"default_name,omitempty" env:"AREATRIP_TRIPS_DEFAULT_NAME"`
	DefaultNote string `yaml:"default_note,omitempty" toml:"default_note,omitempty" env:"AREATRIP_TRIPS_DEFAULT_NOTE"`
}

// SessionConfig locates the session file.
type SessionConfig struct {
	File string `yaml:"file,omitempty" toml:"file,omitempty" env:"AREATRIP_SESSION_FILE"`
}

// AreasConfig locates the area collection.
type AreasConfig struct {
	File string `yaml:"file,omitempty" toml:"file,omitempty" env:"AREATRIP_AREAS_FILE"`
}

// BridgeConfig sets the map bridge listen address.
type BridgeConfig struct {
	Addr string `yaml:"addr,omitempty" toml:"addr,omitempty" env:"AREATRIP_BRIDGE_ADDR"`
}

// TelemetryConfig enables trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint,omitempty" toml:"endpoint,omitempty" env:"AREATRIP_OTEL_ENDPOINT"`
	ServiceName string `yaml:"service_name,omitempty" toml:"service_name,omitempty" env:"AREATRIP_OTEL_SERVICE_NAME"`
}

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "sqlite"
	}
	if c.Store.Path == "" {
		switch c.Store.Backend {
		case "sqlite":
			c.Store.Path = DataPath("trips.db")
		case "diskv":
			c.Store.Path = DataPath("documents")
		}
	}
	if c.Trips.WriteMode == "" {
		c.Trips.WriteMode = "two-phase"
	}
	if c.Session.File == "" {
		c.Session.File = DataPath("session.yml")
	}
	if c.Bridge.Addr == "" {
		c.Bridge.Addr = "127.0.0.1:8642"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "areatrip"
	}
}

// UnmarshalExtension decodes a specific extension's configuration into the
// provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// A missing key leaves target zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
