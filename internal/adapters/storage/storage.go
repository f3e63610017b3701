// Package storage elige el backend del Pet Record Store según config.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pet-profile-service/internal/adapters/storage/bolt"
	"pet-profile-service/internal/adapters/storage/memory"
	"pet-profile-service/internal/adapters/storage/mongo"
	"pet-profile-service/internal/adapters/storage/postgres"
	"pet-profile-service/internal/domain/pets"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

type Config struct {
	Driver string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	PostgresDSN string

	BoltPath string

	Timeout time.Duration
}

// Store agrupa el repo con sus hooks de ciclo de vida.
type Store struct {
	Pets   pets.Repository
	Driver string

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping lo usa /ready. memory siempre está listo.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open conecta el backend y prepara índices/esquema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return &Store{Pets: memory.NewPetRepo(), Driver: driver}, nil

	case DriverMongo:
		client, err := mongo.Connect(ctx, cfg.MongoURI, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		repo := mongo.NewPetsRepo(client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &Store{
			Pets:   repo,
			Driver: driver,
			ping:   repo.Ping,
			close:  client.Disconnect,
		}, nil

	case DriverPostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("postgres open: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		repo := postgres.NewPetsRepo(db)
		return &Store{
			Pets:   repo,
			Driver: driver,
			ping:   repo.Ping,
			close:  func(context.Context) error { return db.Close() },
		}, nil

	case DriverBolt:
		repo, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return &Store{
			Pets:   repo,
			Driver: driver,
			ping:   repo.Ping,
			close:  func(context.Context) error { return repo.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
