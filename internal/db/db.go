// Package db wires configuration to a concrete storage backend and owns
// schema migration for the relational engines.
package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library

	"github.com/glebarez/sqlite" // Pure Go SQLite dialector (modernc engine)

	"finzapp/internal/config"
	"finzapp/internal/store"
	"finzapp/internal/store/kvstore"
	"finzapp/internal/store/sqlstore"
)

// Storage backend names accepted in STORAGE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

// Dialector selects the relational engine for the configured backend:
// MySQL for server deployments, the embedded SQLite file otherwise.
func Dialector(cfg *config.Config) gorm.Dialector {
	if cfg.StorageBackend == BackendMySQL {
		return mysql.Open(cfg.MySQLDSN())
	}
	return sqlite.Open(cfg.SQLitePath)
}

// Open selects and initializes a storage backend from configuration.
// An explicit STORAGE_BACKEND wins; the default is the embedded SQLite
// store, with Redis serving environments that cannot run embedded SQL.
func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StorageBackend {
	case BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		s := kvstore.New(rdb)
		if err := s.Init(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite, BackendMySQL, "":
		return sqlstore.New(Dialector(cfg))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
