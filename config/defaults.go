package config

const (
	defaultConfigPath   = "~/.config/assetdb/config.toml"
	defaultProjectPath  = "assetdb.toml"
	defaultLibraryDir   = "~/.local/share/assetdb/library"
	defaultIndexFile    = "assetdb.sqlite"
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultFlushDelayMS = 50
	defaultDebounceMS   = 500
	defaultMountType    = "asset"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Paths: Paths{
			Library: defaultLibraryDir,
		},
		Engine: Engine{
			FlushDelayMS: defaultFlushDelayMS,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Index: Index{
			Enabled: true,
		},
		Watch: Watch{
			DebounceMS: defaultDebounceMS,
		},
	}
}
