package config

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/identity"
	"github.com/mwantia/assetdb/log"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateMounts(); err != nil {
		return err
	}
	if err := c.validateImporters(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.Workers < 0 {
		return errors.New("engine.workers must be 0 or positive")
	}
	if c.Engine.FlushDelayMS <= 0 {
		return errors.New("engine.flush_delay_ms must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := log.Parse(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateMounts() error {
	seen := make(map[string]struct{}, len(c.Mounts))
	for i, mnt := range c.Mounts {
		if err := identity.ValidateMount(mnt.Name, data.MountType(mnt.Type)); err != nil {
			return fmt.Errorf("mounts[%d]: %w", i, err)
		}
		if mnt.Path == "" {
			return fmt.Errorf("mounts[%d].path must be set", i)
		}
		if _, ok := seen[mnt.Name]; ok {
			return fmt.Errorf("mounts[%d]: %w: %s", i, data.ErrAlreadyMounted, mnt.Name)
		}
		seen[mnt.Name] = struct{}{}
	}
	return nil
}

func (c *Config) validateImporters() error {
	for i, imp := range c.Importers {
		if imp.Ext == "" || imp.Ext == data.MetaExt {
			return fmt.Errorf("importers[%d].ext must be set and can not be %s", i, data.MetaExt)
		}
		if imp.Type == "" {
			return fmt.Errorf("importers[%d].type must be set", i)
		}
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.DebounceMS < 0 {
		return errors.New("watch.debounce_ms must be 0 or positive")
	}
	for _, pat := range c.Watch.Ignore {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch.ignore: invalid pattern %q", pat)
		}
	}
	return nil
}
