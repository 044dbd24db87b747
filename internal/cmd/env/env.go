// Package env wires the runtime shared by the askuser commands: the loaded
// configuration, the logger, the event bus and the session stack.
package env

import (
	"fmt"

	"github.com/Iron-Ham/askuser/internal/config"
	"github.com/Iron-Ham/askuser/internal/event"
	"github.com/Iron-Ham/askuser/internal/logging"
	"github.com/Iron-Ham/askuser/internal/session"
)

// Env holds the components a command works with.
type Env struct {
	Config  *config.Config
	Logger  *logging.Logger
	Bus     *event.Bus
	Store   *session.Store
	Manager *session.Manager
}

// Open loads the configuration from viper and builds an Env from it.
func Open() (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return New(cfg)
}

// New builds an Env for cfg. The log file, when enabled, lives next to the
// session records.
func New(cfg *config.Config) (*Env, error) {
	dir := cfg.Session.ResolveDir()

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		l, err := logging.NewLogger(dir, cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("failed to open log: %w", err)
		}
		logger = l
	}

	store, err := session.NewStore(dir, session.WithStoreLogger(logger))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	bus := event.NewBus(logger)
	opts := session.OptionsFromConfig(cfg)
	opts.Logger = logger
	opts.Bus = bus

	return &Env{
		Config:  cfg,
		Logger:  logger,
		Bus:     bus,
		Store:   store,
		Manager: session.NewManager(store, opts),
	}, nil
}

// Close releases the log file.
func (e *Env) Close() error {
	e.Bus.Clear()
	return e.Logger.Close()
}
