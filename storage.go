package main

import (
	"fmt"

	"go.uber.org/zap"
)

// NewBookStorage connects to the store selected by the storage driver
// setting and returns it ready to serve requests.
func NewBookStorage(logger *zap.Logger, config *Config) (BookStorage, error) {
	switch config.Storage.Driver {
	case DriverSQLite, DriverPostgres:
		db, err := GetGormDB(logger, config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s database: %w", config.Storage.Driver, err)
		}
		return NewGormBookStorage(logger, db), nil

	case DriverBolt:
		client, err := GetBoltDBClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to boltDB server: %w", err)
		}
		return NewBoltBookStorage(logger, &config.BoltDB, client), nil

	case DriverRedis:
		client, err := GetRedisClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis server: %w", err)
		}
		return NewRedisBookStorage(logger, client), nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
}
