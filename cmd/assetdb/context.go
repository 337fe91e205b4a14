package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/mwantia/assetdb"
	"github.com/mwantia/assetdb/config"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/index"
	"github.com/mwantia/assetdb/log"
	"github.com/mwantia/assetdb/meta"
)

var errLocked = errors.New("library is locked by another assetdb process")

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	log *log.Logger
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) json() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// logger writes to the configured file, or to stderr so stdout stays parseable.
// The logger is built once per invocation so every component shares one file handle.
func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) *log.Logger {
	if c.log != nil {
		return c.log
	}

	level, _ := log.Parse(cfg.Logging.Level)

	if cfg.Logging.File != "" {
		var terminal io.Writer
		if !cfg.Logging.NoTerminal {
			terminal = cmd.ErrOrStderr()
		}
		c.log = log.NewFileLogger("assetdb", level, cfg.Logging.File, log.DefaultRotation, terminal)
	} else {
		c.log = log.NewWriterLogger("assetdb", level, cmd.ErrOrStderr())
	}
	c.log.JSON = cfg.Logging.Format == "json"

	return c.log
}

// session is an initialised database holding the library lock.
type session struct {
	cfg     *config.Config
	log     *log.Logger
	db      *assetdb.AssetDB
	initial []data.AssetResult
}

// withDB locks the library, opens the database, mounts the configured mounts,
// runs init and hands the session to fn.
func (c *commandContext) withDB(cmd *cobra.Command, opts []assetdb.Option, fn func(*session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := c.logger(cmd, cfg)

	if err := os.MkdirAll(cfg.Paths.Library, 0o755); err != nil {
		return fmt.Errorf("create library %q: %w", cfg.Paths.Library, err)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errLocked
	}
	defer lock.Unlock()

	options := []assetdb.Option{
		assetdb.WithLibrary(cfg.Paths.Library),
		assetdb.WithLogger(logger.Named("db")),
		assetdb.WithFlushDelay(cfg.FlushDelay()),
	}
	if cfg.Engine.Workers > 0 {
		options = append(options, assetdb.WithWorkers(cfg.Engine.Workers))
	}

	var idx *index.Index
	if cfg.Index.Enabled {
		if idx, err = index.Open(ctx, cfg.Index.Path); err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		options = append(options, assetdb.WithIndex(idx))
	}

	db, err := assetdb.New(append(options, opts...)...)
	if err != nil {
		if idx != nil {
			idx.Close()
		}
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database: %v", err)
		}
	}()

	for _, imp := range cfg.Importers {
		db.Register(imp.Ext, false, meta.NewCopyType(imp.Type, imp.Ext))
	}

	for _, mnt := range cfg.Mounts {
		if err := db.Mount(ctx, mnt.Path, mnt.Name, data.MountType(mnt.Type)); err != nil {
			return err
		}
	}

	initial, err := db.Init(ctx)
	if err != nil {
		return err
	}
	logger.Debug("init reimported %d assets", len(initial))

	return fn(&session{cfg: cfg, log: logger, db: db, initial: initial})
}
