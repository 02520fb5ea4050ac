package pgcomment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/rickchristie/pgcomment/internal/errprompt"
	"github.com/rickchristie/pgcomment/internal/hooks"
	"github.com/rickchristie/pgcomment/internal/protection"
	"github.com/rickchristie/pgcomment/internal/sanitize"
	"github.com/rickchristie/pgcomment/internal/timeout"
)

// Service hands out Commenters that share one database handle, statement
// timeouts, the keyword denylist, read-only mode and before_save hooks.
// All exported methods are safe for concurrent use from multiple goroutines.
type Service struct {
	config     Config
	pool       *pgxpool.Pool // nil when built with NewService
	db         DB
	guard      *protection.Checker
	sanitizer  *sanitize.Sanitizer
	errPrompts *errprompt.Matcher
	timeouts   *timeout.Manager
	cmdHooks   *hooks.Runner
	logger     zerolog.Logger
}

// Option is a functional option for Open() and NewService().
type Option func(*options)

type options struct {
	serverHooks *ServerHooksConfig
}

// WithServerHooks passes command-based hook configuration to the Service.
func WithServerHooks(h ServerHooksConfig) Option {
	return func(o *options) {
		o.serverHooks = &h
	}
}

// Open creates a connection pool and a Service on top of it.
// connString is the PostgreSQL connection string (must include credentials).
// In library mode, connString is required; Config.Connection fields are only
// read by the CLI. Panics on invalid config. Returns error only for runtime
// failures (e.g., pool creation).
func Open(ctx context.Context, connString string, config Config, logger zerolog.Logger, opts ...Option) (*Service, error) {
	if connString == "" {
		panic("pgcomment: connString must be non-empty")
	}
	if config.Pool.MaxConns <= 0 {
		panic("pgcomment: pool.max_conns must be > 0")
	}

	s := build(config, logger, opts)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(config.Pool.MaxConns)
	poolConfig.MinConns = int32(config.Pool.MinConns)
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	if config.Pool.MaxConnLifetime != "" {
		poolConfig.MaxConnLifetime = mustParseDuration("pool.max_conn_lifetime", config.Pool.MaxConnLifetime)
	}
	if config.Pool.MaxConnIdleTime != "" {
		poolConfig.MaxConnIdleTime = mustParseDuration("pool.max_conn_idle_time", config.Pool.MaxConnIdleTime)
	}
	if config.Pool.HealthCheckPeriod != "" {
		poolConfig.HealthCheckPeriod = mustParseDuration("pool.health_check_period", config.Pool.HealthCheckPeriod)
	}

	if config.ReadOnly {
		poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if _, err := conn.Exec(ctx, "SET default_transaction_read_only = on"); err != nil {
				return fmt.Errorf("failed to SET default_transaction_read_only: %w", err)
			}
			return nil
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	s.pool = pool
	s.db = &timedDB{db: pool, timeouts: s.timeouts, logger: logger}
	return s, nil
}

// NewService builds a Service on a handle the caller owns, for example a
// pgx.Tx. Config.Pool is ignored and Close does not close db. Panics on
// invalid config, like Open.
func NewService(db DB, config Config, logger zerolog.Logger, opts ...Option) *Service {
	if isNilDB(db) {
		panic("pgcomment: db must be non-nil")
	}
	s := build(config, logger, opts)
	s.db = &timedDB{db: db, timeouts: s.timeouts, logger: logger}
	return s
}

// build validates config and initializes everything but the database handle.
func build(config Config, logger zerolog.Logger, opts []Option) *Service {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if config.Timeouts.ReadTimeoutSeconds <= 0 {
		panic("pgcomment: timeouts.read_timeout_seconds must be > 0")
	}
	if config.Timeouts.WriteTimeoutSeconds <= 0 {
		panic("pgcomment: timeouts.write_timeout_seconds must be > 0")
	}
	for _, rule := range config.Timeouts.Rules {
		if rule.TimeoutSeconds <= 0 {
			panic(fmt.Sprintf("pgcomment: timeout rule with pattern %q has timeout_seconds <= 0", rule.Pattern))
		}
	}

	san := sanitize.NewSanitizer(config.DeniedKeywords)
	if config.DefaultSchema == "" {
		config.DefaultSchema = DefaultSchema
	}
	if _, err := san.Identifier(config.DefaultSchema); err != nil {
		panic(fmt.Sprintf("pgcomment: invalid default_schema: %v", err))
	}

	promptRules := errprompt.DefaultRules
	if len(config.ErrorPrompts) > 0 {
		promptRules = lo.Map(config.ErrorPrompts, func(r ErrorPromptRule, _ int) errprompt.Rule {
			return errprompt.Rule{Pattern: r.Pattern, Message: r.Message}
		})
	}
	matcher, err := errprompt.NewMatcher(promptRules)
	if err != nil {
		panic(fmt.Sprintf("pgcomment: %v", err))
	}

	tmgr, err := timeout.NewManager(timeout.Config{
		ReadTimeout:  seconds(config.Timeouts.ReadTimeoutSeconds),
		WriteTimeout: seconds(config.Timeouts.WriteTimeoutSeconds),
		Rules: lo.Map(config.Timeouts.Rules, func(r TimeoutRule, _ int) timeout.Rule {
			return timeout.Rule{Pattern: r.Pattern, Timeout: seconds(r.TimeoutSeconds)}
		}),
	})
	if err != nil {
		panic(fmt.Sprintf("pgcomment: %v", err))
	}

	var beforeSave []hooks.HookEntry
	if o.serverHooks != nil {
		beforeSave = lo.Map(o.serverHooks.BeforeSave, func(e HookEntry, _ int) hooks.HookEntry {
			return hooks.HookEntry{
				Pattern: e.Pattern,
				Command: e.Command,
				Args:    e.Args,
				Timeout: seconds(e.TimeoutSeconds),
			}
		})
	}
	cmdHooks := hooks.NewRunner(hooks.Config{
		DefaultTimeout: seconds(config.DefaultHookTimeoutSeconds),
		BeforeSave:     beforeSave,
	}, logger)

	return &Service{
		config:     config,
		guard:      protection.NewChecker(protection.Config{ReadOnly: config.ReadOnly}),
		sanitizer:  san,
		errPrompts: matcher,
		timeouts:   tmgr,
		cmdHooks:   cmdHooks,
		logger:     logger,
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func mustParseDuration(field, value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(fmt.Sprintf("pgcomment: invalid %s %q: %v", field, value, err))
	}
	return d
}

// Close closes the connection pool opened by Open. Accepts context for API
// forward-compatibility; pgxpool.Pool.Close() does not support context-based shutdown.
func (s *Service) Close(ctx context.Context) {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	_, err := s.db.Exec(ctx, "SELECT 1")
	return err
}

// Entity returns a Commenter for name in schema. An empty schema means the
// configured default schema.
func (s *Service) Entity(name, schema string) (*Commenter, error) {
	if schema == "" {
		schema = s.config.DefaultSchema
	}
	return newCommenter(s.db, name, schema, s.logger, s.sanitizer, s.guard)
}

// Save validates the snapshot, runs the before_save hooks for the entity and
// then saves the (possibly modified) snapshot with Commenter.SaveComments.
// A snapshot that fails validation never reaches a hook.
func (s *Service) Save(ctx context.Context, name, schema string, snapshot Snapshot) error {
	c, err := s.Entity(name, schema)
	if err != nil {
		return err
	}
	if err := c.validateSnapshot(snapshot); err != nil {
		return err
	}

	if s.cmdHooks.HasBeforeSaveHooks() {
		data, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("pgcomment: encode snapshot: %w", err)
		}
		data, err = s.cmdHooks.RunBeforeSave(ctx, c.Ref().String(), data)
		if err != nil {
			return fmt.Errorf("pgcomment: %w", err)
		}
		return c.SaveCommentsJSON(ctx, data)
	}
	return c.SaveComments(ctx, snapshot)
}

// Annotate returns err's message with the configured error prompts appended.
func (s *Service) Annotate(err error) string {
	return s.errPrompts.Annotate(err)
}
