package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/grovetools/areatrip/errors"
)

var (
	storeBackends = map[string]bool{"memory": true, "sqlite": true, "diskv": true}
	writeModes    = map[string]bool{"two-phase": true, "atomic": true}
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !storeBackends[c.Store.Backend] {
		return errors.ConfigValidation("store.backend", fmt.Sprintf("unknown backend %q (want memory, sqlite or diskv)", c.Store.Backend))
	}
	if c.Store.Backend != "memory" && c.Store.Path == "" {
		return errors.ConfigValidation("store.path", "required for the "+c.Store.Backend+" backend")
	}

	if !writeModes[c.Trips.WriteMode] {
		return errors.ConfigValidation("trips.write_mode", fmt.Sprintf("unknown write mode %q (want two-phase or atomic)", c.Trips.WriteMode))
	}

	if err := validateAddr(c.Bridge.Addr); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid bridge configuration").
			WithDetail("field", "bridge.addr")
	}

	return nil
}

func validateAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("address %q: invalid port", addr)
	}
	return nil
}
