package config

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Completion-date policies.
const (
	CompletionDateDeadline = "deadline"
	CompletionDateActual   = "actual"
)

// Cancellation modes.
const (
	CancellationState  = "state"
	CancellationLegacy = "legacy"
)

const (
	defaultConfigPath           = "~/.config/vitrine/config.toml"
	defaultDataDir              = "~/.local/share/vitrine"
	defaultLogDir               = "~/.local/share/vitrine/logs"
	defaultAPIBind              = "127.0.0.1:7611"
	defaultCuratorInterval      = 60
	defaultCleanerInterval      = 30
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
	postgresDSNEnv              = "VITRINE_POSTGRES_DSN"
	ntfyTopicEnv                = "VITRINE_NTFY_TOPIC"
	apiTokenEnv                 = "VITRINE_API_TOKEN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Store: Store{
			Driver: DriverSQLite,
		},
		Maintenance: Maintenance{
			CompletionDate: CompletionDateDeadline,
			Cancellation:   CancellationState,
		},
		Reconcile: Reconcile{
			CuratorInterval: defaultCuratorInterval,
			CleanerInterval: defaultCleanerInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
