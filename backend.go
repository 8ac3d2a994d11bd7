package main

import (
	"context"
	"fmt"

	"mytown-issues/config"
	"mytown-issues/models"
	"mytown-issues/store"

	"go.uber.org/zap"
)

// backend holds the stores selected by STORE_BACKEND.
type backend struct {
	Issues store.IssueStore
	Users  store.UserStore
	close  func(context.Context) error
}

func (b backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (backend, error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Info("Using in-memory store")
		return backend{Issues: store.NewMemory(), Users: store.NewMemoryUsers()}, nil
	}

	client, db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		return backend{}, err
	}
	logger.Info("MongoDB connection established", zap.String("database", cfg.MongoDatabase))

	issues := store.NewMongo(db)
	users := store.NewMongoUsers(db)
	if err := issues.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return backend{}, fmt.Errorf("issue indexes: %w", err)
	}
	if err := users.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return backend{}, fmt.Errorf("user indexes: %w", err)
	}

	return backend{Issues: issues, Users: users, close: client.Disconnect}, nil
}

// loadSeed reads SEED_FILE, or the bundled issues when it is unset.
func loadSeed(cfg config.Config) ([]models.Issue, error) {
	if cfg.SeedFile == "" {
		return store.DefaultSeed()
	}
	return store.LoadSeedFile(cfg.SeedFile)
}
