package application

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eugenenazirov/mlflow-aws/internal/config"
	"github.com/eugenenazirov/mlflow-aws/internal/logging"
	"github.com/eugenenazirov/mlflow-aws/internal/output"
	"github.com/eugenenazirov/mlflow-aws/internal/storage"
	"github.com/eugenenazirov/mlflow-aws/internal/tracking"
)

// Options carries process-level settings that come from flags rather than configuration.
type Options struct {
	Debug   bool
	JSONLog bool
}

// App encapsulates the CLI dependencies.
type App struct {
	config *config.Resolver
	logger *zap.Logger
	level  zap.AtomicLevel
}

// New resolves the config file location from env and wires the resolver and logger.
// Debug output is enabled by the flag or by the effective DEBUG key.
func New(env config.Env, opts Options) (*App, error) {
	path, err := storage.ResolvePath(env)
	if err != nil {
		return nil, fmt.Errorf("resolve config location: %w", err)
	}

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Debug {
		level.SetLevel(zapcore.DebugLevel)
	}
	logger, err := logging.New(logging.Options{Level: level, JSON: opts.JSONLog})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	return NewWithResolver(config.NewResolver(storage.NewFileStore(path), env, config.WithLogger(logger)), logger, level), nil
}

// NewWithResolver wires an App around an existing resolver, primarily for tests.
func NewWithResolver(resolver *config.Resolver, logger *zap.Logger, level zap.AtomicLevel) *App {
	if level != (zap.AtomicLevel{}) && resolver.Bool(config.Debug) {
		level.SetLevel(zapcore.DebugLevel)
	}
	return &App{
		config: resolver,
		logger: logger,
		level:  level,
	}
}

// Config returns the configuration resolver.
func (a *App) Config() *config.Resolver {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// TrackingClient builds a tracking server client from the effective configuration.
func (a *App) TrackingClient() (*tracking.Client, error) {
	uri := a.config.String(config.TrackingURI)
	client, err := tracking.New(uri,
		tracking.WithLogger(a.logger.Named("tracking")),
		tracking.WithRetry(a.config.Int(config.RetryAttempts), time.Duration(a.config.Int(config.BackoffFactor))*time.Second),
		tracking.WithRateLimit(float64(a.config.Int(config.TrackingRequestsPerSec)), 1),
	)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("tracking client configured", zap.String("uri", uri))
	return client, nil
}

// Renderer builds an output renderer bounded by MAX_TABLE_WIDTH.
func (a *App) Renderer(format string) (*output.Renderer, error) {
	return output.New(output.Format(format), a.config.Int(config.MaxTableWidth))
}
