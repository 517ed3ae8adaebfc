package backend

import (
	"context"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/storage"
	"expenses/internal/storage/memory"
)

// EventClient publishes expense change events.
type EventClient interface {
	PublishExpenseEvent(ctx context.Context, eventType amqp.EventType, id int64) error
	Close() error
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	dial   func(url, exchange, queue string) (EventClient, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		dial: func(url, exchange, queue string) (EventClient, error) {
			client, err := amqp.NewClient(url, exchange, queue)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

// CreateBackend opens and initializes the configured store. A broker that
// cannot be reached is logged and skipped; a store that cannot be initialized
// fails the call.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var repo Backend
	switch config.Type {
	case SQLiteBackend:
		repo = storage.New(config.SQLiteDBPath)
	case MemoryBackend:
		repo = memory.New()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if err := repo.Initialize(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("initialize %s backend: %w", config.Type, err)
	}

	result := &BackendResult{Backend: repo}

	if config.AMQPURL != "" {
		client, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			result.Events = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if result.Events != nil {
			if err := result.Events.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if err := repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
		if len(errs) > 0 {
			return fmt.Errorf("close backend: %v", errs)
		}
		return nil
	}

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", result.Events != nil)

	return result, nil
}
