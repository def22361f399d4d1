package config

// Store backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config is the complete application configuration.
type Config struct {
	Log    Log
	Store  Store
	Writer Writer
	// HealthcheckPort serves /health and /metrics while a command runs. 0
	// disables the server.
	HealthcheckPort int
}

// Log configures the process logger.
type Log struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

// Store selects and configures the persistence backend.
type Store struct {
	Backend string
	// Path is the badger directory or the sqlite database file. Badger runs
	// in memory when it is empty.
	Path string
}

// Writer configures the background write queue of the session.
type Writer struct {
	QueueSize int
	Workers   int
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log:    Log{Level: "info", Format: "text"},
		Store:  Store{Backend: BackendMemory},
		Writer: Writer{QueueSize: 256, Workers: 1},
	}
}
