package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"servicepulse/backend/internal/config"
)

// Dialector picks the gorm driver for a relational storage driver name.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported relational driver %q", driver)
}

// IsRelational reports whether driver is served by gorm.
func IsRelational(driver string) bool {
	_, err := Dialector(driver, "")
	return err == nil
}

// OpenDB connects gorm for the configured relational driver.
func OpenDB(cfg config.StorageConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// OpenRedis connects and pings a redis client.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// New builds the Store named by cfg.Storage.Driver from already opened
// connections. db is required for relational drivers and rdb for "redis".
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (Store, error) {
	driver := strings.ToLower(cfg.Storage.Driver)
	switch {
	case driver == "memory":
		return NewMemoryStore(), nil
	case driver == "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis storage requires a redis client")
		}
		return NewRedisStore(rdb, cfg.Redis.Prefix), nil
	case IsRelational(driver):
		if db == nil {
			return nil, fmt.Errorf("%s storage requires a database connection", driver)
		}
		return NewGormStore(db)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
