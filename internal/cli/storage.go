package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/truora/miniql"
	"github.com/truora/miniql/core"
	"github.com/truora/miniql/dynamo"
	"github.com/truora/miniql/interpreter"
	"github.com/truora/miniql/query"
	"github.com/truora/miniql/sqlite"
)

// Storage managers built from a Config.
type Storage struct {
	Documents query.DocumentManager
	KeyValue  query.KeyValueManager

	close func() error
}

// Close releases the backend resources.
func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}

	return s.close()
}

// OpenStorage builds the managers of the configured backend. The sqlite
// backend keeps documents in memory and only persists the key-value bucket.
func OpenStorage(ctx context.Context, cfg *Config, logger *slog.Logger) (*Storage, error) {
	switch cfg.Backend {
	case BackendMemory:
		return &Storage{Documents: core.NewManager(), KeyValue: core.NewBucket()}, nil
	case BackendSQLite:
		bucket, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}

		return &Storage{Documents: core.NewManager(), KeyValue: bucket, close: bucket.Close}, nil
	case BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.DynamoDB, logger)
		if err != nil {
			return nil, err
		}

		opts := dynamo.FromConfig(cfg.DynamoDB)

		return &Storage{
			Documents: dynamo.NewManager(client, opts...),
			KeyValue:  dynamo.NewBucket(client, cfg.DynamoDB.BucketTable, opts...),
		}, nil
	}

	return nil, fmt.Errorf("invalid backend %q", cfg.Backend)
}

// NewEngine creates an engine with the aliases and enums of cfg.
func NewEngine(cfg *Config, logger *slog.Logger) *miniql.Engine {
	opts := []miniql.Option{miniql.WithLogger(logger)}

	if len(cfg.Entities) > 0 || len(cfg.Fields) > 0 {
		opts = append(opts, miniql.WithResolver(interpreter.AliasResolver{
			Entities: cfg.Entities,
			Fields:   cfg.Fields,
		}))
	}

	if len(cfg.Enums) > 0 {
		converters := interpreter.NewConverters()

		for name, members := range cfg.Enums {
			converters.RegisterEnum(name, members...)
		}

		opts = append(opts, miniql.WithConverters(converters))
	}

	if cfg.Debug {
		opts = append(opts, miniql.WithDebug())
	}

	return miniql.New(opts...)
}
