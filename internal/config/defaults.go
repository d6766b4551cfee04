package config

const (
	defaultDataDir               = "~/.local/share/cinema"
	defaultBackupDir             = "~/.local/share/cinema/backup"
	defaultLogDir                = "~/.local/share/cinema/logs"
	defaultMovieDB               = "movie.db"
	defaultTVShowDB              = "tvshow.db"
	defaultPoolSize              = 5
	defaultAcquireTimeoutSeconds = 30
	defaultIngestWorkers         = 4
	defaultIngestRetryAttempts   = 3
	defaultIngestRetryBackoffMS  = 50
	defaultDedupSource           = "电影天堂"
	defaultAPIBind               = "127.0.0.1:7000"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults. Paths are not
// expanded until Load normalizes them.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			BackupDir: defaultBackupDir,
			LogDir:    defaultLogDir,
		},
		Store: Store{
			MovieDB:               defaultMovieDB,
			TVShowDB:              defaultTVShowDB,
			PoolSize:              defaultPoolSize,
			AcquireTimeoutSeconds: defaultAcquireTimeoutSeconds,
		},
		Ingest: Ingest{
			Workers:            defaultIngestWorkers,
			RetryAttempts:      defaultIngestRetryAttempts,
			RetryBackoffMillis: defaultIngestRetryBackoffMS,
		},
		Dedup: Dedup{
			Source: defaultDedupSource,
		},
		API: API{
			Bind:           defaultAPIBind,
			AllowedOrigins: []string{"*"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
