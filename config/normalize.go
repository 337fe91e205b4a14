package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeMounts(); err != nil {
		return err
	}
	c.normalizeImporters()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.Library) == "" {
		c.Paths.Library = defaultLibraryDir
	}
	if c.Paths.Library, err = expandPath(c.Paths.Library); err != nil {
		return fmt.Errorf("paths.library: %w", err)
	}

	if strings.TrimSpace(c.Index.Path) == "" {
		c.Index.Path = filepath.Join(c.Paths.Library, defaultIndexFile)
	}
	if c.Index.Path, err = expandPath(c.Index.Path); err != nil {
		return fmt.Errorf("index.path: %w", err)
	}

	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeMounts() error {
	for i := range c.Mounts {
		mnt := &c.Mounts[i]
		mnt.Name = strings.TrimSpace(mnt.Name)
		mnt.Type = strings.ToLower(strings.TrimSpace(mnt.Type))
		if mnt.Type == "" {
			mnt.Type = defaultMountType
		}

		var err error
		if mnt.Path, err = expandPath(mnt.Path); err != nil {
			return fmt.Errorf("mounts[%d].path: %w", i, err)
		}
	}
	return nil
}

func (c *Config) normalizeImporters() {
	for i := range c.Importers {
		imp := &c.Importers[i]
		imp.Type = strings.TrimSpace(imp.Type)
		imp.Ext = strings.ToLower(strings.TrimSpace(imp.Ext))
		if imp.Ext != "" && !strings.HasPrefix(imp.Ext, ".") {
			imp.Ext = "." + imp.Ext
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
