package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"myfood/internal/config"
	"myfood/internal/files"
	"myfood/internal/platform/drive"
)

// OpenStore connects the backend selected by cfg.Storage and wraps it in a
// read cache. The returned close function releases database connections.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*files.Cache, func() error, error) {
	var store files.Store
	closeFn := func() error { return nil }

	switch cfg.Storage {
	case config.StorageDrive:
		creds, err := os.ReadFile(cfg.Credentials)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read drive credentials: %w", err)
		}
		c, err := drive.NewClient(ctx, creds)
		if err != nil {
			return nil, nil, err
		}
		store = c
	case config.StoragePostgres, config.StorageSQLite:
		s, err := files.NewSQLStore(cfg.Storage, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, s.Close
	case config.StorageMemory:
		store = files.NewMemoryStore()
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	logger.Info("file store opened", zap.String("backend", cfg.Storage), zap.String("folder", cfg.FolderID))
	return files.NewCache(store), closeFn, nil
}

// OptionsFrom maps the configuration onto service options.
func OptionsFrom(cfg config.Config) Options {
	return Options{
		Folder:         cfg.FolderID,
		ReferenceFile:  cfg.ReferenceFile,
		ReferenceSheet: cfg.ReferenceSheet,
		Columns:        cfg.Columns,
	}
}

// Open builds a loaded Service from cfg.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Service, func() error, error) {
	store, closeFn, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	svc := NewService(store, OptionsFrom(cfg), logger)
	if err := svc.Load(ctx); err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("failed to load state: %w", err)
	}
	return svc, closeFn, nil
}
