package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

// ErrRejected is returned when a hook declines a save.
var ErrRejected = errors.New("rejected by hook")

// Config is the hook runner's own config type.
type Config struct {
	DefaultTimeout time.Duration
	BeforeSave     []HookEntry
}

// HookEntry defines a single command-based hook. Pattern is matched against
// the entity reference, "schema.name".
type HookEntry struct {
	Pattern string
	Command string
	Args    []string
	Timeout time.Duration // 0 means use DefaultTimeout
}

// BeforeSaveInput is written to the hook's stdin as JSON.
type BeforeSaveInput struct {
	Entity   string          `json:"entity"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// BeforeSaveResult is the JSON response from a before_save hook.
type BeforeSaveResult struct {
	Accept           bool            `json:"accept"`
	ModifiedSnapshot json.RawMessage `json:"modified_snapshot,omitempty"`
	ErrorMessage     string          `json:"error_message,omitempty"`
}

type compiledHook struct {
	pattern *regexp.Regexp
	command string
	args    []string
	timeout time.Duration
}

// Runner executes command-based hooks.
type Runner struct {
	beforeSave     []compiledHook
	defaultTimeout time.Duration
	logger         zerolog.Logger
}

// NewRunner creates a new Runner. Panics on invalid regex or invalid config.
func NewRunner(config Config, logger zerolog.Logger) *Runner {
	if config.DefaultTimeout == 0 && len(config.BeforeSave) > 0 {
		panic("hooks: default_hook_timeout_seconds must be > 0 when hooks are configured")
	}

	compiled := make([]compiledHook, len(config.BeforeSave))
	for i, e := range config.BeforeSave {
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			panic(fmt.Sprintf("hooks: invalid regex pattern %q: %v", e.Pattern, err))
		}
		timeout := e.Timeout
		if timeout == 0 {
			timeout = config.DefaultTimeout
		}
		compiled[i] = compiledHook{
			pattern: re,
			command: e.Command,
			args:    e.Args,
			timeout: timeout,
		}
	}

	return &Runner{
		beforeSave:     compiled,
		defaultTimeout: config.DefaultTimeout,
		logger:         logger,
	}
}

// HasBeforeSaveHooks returns true if any BeforeSave hooks are configured.
func (r *Runner) HasBeforeSaveHooks() bool {
	return len(r.beforeSave) > 0
}

// RunBeforeSave runs the hooks whose pattern matches entity, in order. Each
// hook sees the snapshot as left by the previous one and may replace it.
func (r *Runner) RunBeforeSave(ctx context.Context, entity string, snapshot []byte) ([]byte, error) {
	current := snapshot
	for _, hook := range r.beforeSave {
		if !hook.pattern.MatchString(entity) {
			continue
		}
		input, err := json.Marshal(BeforeSaveInput{Entity: entity, Snapshot: current})
		if err != nil {
			return nil, fmt.Errorf("before_save hook input: %w", err)
		}
		output, err := r.executeHook(ctx, hook, input)
		if err != nil {
			return nil, fmt.Errorf("before_save hook error: %w", err)
		}

		var result BeforeSaveResult
		if err := json.Unmarshal(output, &result); err != nil {
			return nil, fmt.Errorf("before_save hook returned unparseable response (command: %s): %w", hook.command, err)
		}

		if !result.Accept {
			if result.ErrorMessage != "" {
				return nil, fmt.Errorf("%w: %s", ErrRejected, result.ErrorMessage)
			}
			return nil, ErrRejected
		}
		if len(result.ModifiedSnapshot) > 0 {
			current = result.ModifiedSnapshot
			r.logger.Debug().Str("command", hook.command).Str("entity", entity).Msg("before_save hook modified snapshot")
		}
	}
	return current, nil
}

func (r *Runner) executeHook(ctx context.Context, hook compiledHook, input []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, hook.timeout)
	defer cancel()

	// No shell: the binary is executed directly with its args.
	cmd := exec.CommandContext(ctx, hook.command, hook.args...)
	cmd.Stdin = bytes.NewReader(input)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if stderr.Len() > 0 {
			r.logger.Warn().Str("command", hook.command).Str("stderr", stderr.String()).Msg("hook stderr output")
		}
		// Any failure stops the save: non-zero exit, crash, timeout.
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("hook timed out: %s", hook.command)
		}
		return nil, fmt.Errorf("hook failed (command: %s): %w", hook.command, err)
	}
	if stderr.Len() > 0 {
		r.logger.Debug().Str("command", hook.command).Str("stderr", stderr.String()).Msg("hook stderr output")
	}
	return output, nil
}
