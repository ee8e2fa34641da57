// Package store opens the contact repository selected by DB_DRIVER.
package store

import (
	"context"
	"fmt"
	"strconv"

	"contactbook/boltdb"
	"contactbook/contact"
	"contactbook/dynamodb"
	"contactbook/inmem"
	"contactbook/pkg/config"
	"contactbook/postgres"
)

// Open returns the repository for cfg.DB.Driver and a function releasing its
// connection.
func Open(ctx context.Context, cfg *config.Config) (contact.Repository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.DB.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewConnection(postgres.Options{
			DBName:       cfg.DB.Name,
			DBUser:       cfg.DB.User,
			Password:     cfg.DB.Pass,
			Host:         cfg.DB.Host,
			Port:         strconv.Itoa(cfg.DB.Port),
			SSLMode:      cfg.DB.EnableSSL,
			MaxOpenConns: cfg.DB.MaxConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return postgres.NewContactRepository(db), sqlDB.Close, nil

	case config.DriverDynamoDB:
		client, err := dynamodb.NewClient(ctx, dynamodb.Options{
			Region:       cfg.DynamoDB.Region,
			Endpoint:     cfg.DynamoDB.Endpoint,
			AccessKey:    cfg.DynamoDB.AccessKey,
			SecretKey:    cfg.DynamoDB.SecretKey,
			SessionToken: cfg.DynamoDB.SessionToken,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.DynamoDB.CreateTable {
			if err := dynamodb.CreateTable(ctx, client, cfg.DynamoDB.ContactsTable); err != nil {
				return nil, nil, err
			}
		}
		return dynamodb.NewContactRepository(client, cfg.DynamoDB.ContactsTable), noop, nil

	case config.DriverBolt:
		db, err := boltdb.Open(boltdb.Options{Path: cfg.Bolt.Path})
		if err != nil {
			return nil, nil, err
		}
		return boltdb.NewContactRepository(db), db.Close, nil

	case config.DriverMemory:
		return inmem.NewContactRepository(), noop, nil
	}

	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.DB.Driver)
}
