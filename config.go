package pgcomment

// Config is the base configuration used by library mode via Open().
type Config struct {
	Pool                      PoolConfig        `json:"pool"`
	Timeouts                  TimeoutConfig     `json:"timeouts"`
	ErrorPrompts              []ErrorPromptRule `json:"error_prompts"`
	DeniedKeywords            []string          `json:"denied_keywords"`
	DefaultSchema             string            `json:"default_schema"`
	ReadOnly                  bool              `json:"read_only"`
	DefaultHookTimeoutSeconds int               `json:"default_hook_timeout_seconds"`
}

// ServerConfig embeds Config and adds server-only fields for CLI mode.
type ServerConfig struct {
	Config
	Connection  ConnectionConfig  `json:"connection"`
	Server      ServerSettings    `json:"server"`
	Logging     LoggingConfig     `json:"logging"`
	ServerHooks ServerHooksConfig `json:"server_hooks"`
}

// ConnectionConfig holds database connection parameters used by CLI mode.
type ConnectionConfig struct {
	Host    string `json:"host"`
	Port    int    `json:"port"`
	DBName  string `json:"dbname"`
	SSLMode string `json:"sslmode"`
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxConns          int    `json:"max_conns"`
	MinConns          int    `json:"min_conns"`
	MaxConnLifetime   string `json:"max_conn_lifetime"`
	MaxConnIdleTime   string `json:"max_conn_idle_time"`
	HealthCheckPeriod string `json:"health_check_period"`
}

// ServerSettings holds HTTP server settings for CLI mode.
type ServerSettings struct {
	Port               int    `json:"port"`
	HealthCheckEnabled bool   `json:"health_check_enabled"`
	HealthCheckPath    string `json:"health_check_path"`
}

// LoggingConfig holds logging settings for CLI mode.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, or file path
}

// TimeoutConfig bounds every catalog read and COMMENT ON statement.
type TimeoutConfig struct {
	ReadTimeoutSeconds  int           `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int           `json:"write_timeout_seconds"`
	Rules               []TimeoutRule `json:"rules"`
}

// TimeoutRule maps a SQL pattern to a specific timeout duration.
type TimeoutRule struct {
	Pattern        string `json:"pattern"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// ErrorPromptRule maps an error message pattern to a guidance message.
type ErrorPromptRule struct {
	Pattern string `json:"pattern"`
	Message string `json:"message"`
}

// ServerHooksConfig holds command-based hook configuration for CLI mode.
type ServerHooksConfig struct {
	BeforeSave []HookEntry `json:"before_save"`
}

// HookEntry defines a single command-based hook. Pattern is matched against
// "schema.name" of the entity being saved.
type HookEntry struct {
	Pattern        string   `json:"pattern"`
	Command        string   `json:"command"`
	Args           []string `json:"args"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}
