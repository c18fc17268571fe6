package config

const (
	defaultStateDir              = "~/.local/share/reclaim"
	defaultLogDir                = "~/.local/share/reclaim/logs"
	defaultFallbackQuarantineDir = "~/.local/share/reclaim/quarantine"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 60
	defaultCheckIntervalMinutes  = 60
	defaultIdleThresholdMinutes  = 10
	defaultExpirationDays        = 30
	defaultSweepIntervalMinutes  = 360
	defaultInventoryTimeout      = 30
)

func defaultMediaExtensions() []string {
	return []string{".mpg", ".mpeg", ".ts", ".m2ts", ".mp4", ".mkv", ".avi", ".wtv", ".m4v"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:              defaultStateDir,
			LogDir:                defaultLogDir,
			FallbackQuarantineDir: defaultFallbackQuarantineDir,
		},
		Cleanup: Cleanup{
			Enabled:              true,
			CheckIntervalMinutes: defaultCheckIntervalMinutes,
			IdleThresholdMinutes: defaultIdleThresholdMinutes,
			ExpirationDays:       defaultExpirationDays,
			PurgeHistory:         true,
			SweepIntervalMinutes: defaultSweepIntervalMinutes,
		},
		Scan: Scan{
			MediaExtensions: defaultMediaExtensions(),
		},
		Inventory: Inventory{
			TimeoutSeconds: defaultInventoryTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
