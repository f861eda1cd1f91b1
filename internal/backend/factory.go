package backend

import (
	"context"
	"errors"
	"fmt"

	"carteira/internal/adapters"
	"carteira/internal/amqp"
	applog "carteira/internal/log"
	"carteira/internal/persistence/memory"
	"carteira/internal/storage"
)

// PublishObserver is told about every sync publish attempt.
type PublishObserver interface {
	ObservePublish(err error)
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger   *applog.Logger
	observer PublishObserver
}

// NewFactory creates a new backend factory. observer may be nil.
func NewFactory(logger *applog.Logger, observer PublishObserver) *DefaultFactory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{
		logger:   logger.WithComponent(applog.ComponentBackend),
		observer: observer,
	}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	repo.WithLogger(f.logger)

	result := &BackendResult{
		Adapter: repo,
		Cleanup: repo.Close,
		Health:  repo.Ping,
	}

	if config.AMQPURL == "" {
		f.logger.InfoContext(ctx, "Initialized SQLite backend",
			"db_path", config.SQLiteDBPath,
			"amqp_enabled", false)
		return result, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without sync",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeNetwork)
		return result, nil
	}

	var publisher adapters.Publisher = client
	if f.observer != nil {
		publisher = observedPublisher{next: client, observer: f.observer}
	}
	result.Adapter = adapters.NewSyncingAdapter(repo, publisher, f.logger)
	result.Cleanup = func() error {
		return errors.Join(client.Close(), repo.Close())
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", true,
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return result, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &BackendResult{
		Adapter: store,
		Cleanup: func() error { return nil },
		Health:  func(context.Context) error { return nil },
	}, nil
}

type observedPublisher struct {
	next     adapters.Publisher
	observer PublishObserver
}

func (p observedPublisher) PublishProfileSync(ctx context.Context, profile string, revision int64) error {
	err := p.next.PublishProfileSync(ctx, profile, revision)
	p.observer.ObservePublish(err)
	return err
}
