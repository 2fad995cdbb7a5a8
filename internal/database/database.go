package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/01moynul/pixelpulse-golang/internal/config"
	"github.com/01moynul/pixelpulse-golang/internal/store"
	"github.com/01moynul/pixelpulse-golang/internal/store/memstore"
	"github.com/01moynul/pixelpulse-golang/internal/store/mongostore"
	"github.com/01moynul/pixelpulse-golang/internal/store/mysqlstore"
	_ "github.com/go-sql-driver/mysql"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Open connects the backend selected by cfg.Database.Driver, prepares its
// schema or indexes and returns it as a store.Store.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), nil

	case config.DriverMySQL:
		db, err := OpenDBWithDSN(ctx, cfg.Database.MySQLDSN)
		if err != nil {
			return nil, err
		}
		s := mysqlstore.New(db)
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("mysql connection pool established")
		return s, nil

	default:
		client, err := OpenMongo(ctx, cfg.Database.MongoURI)
		if err != nil {
			return nil, err
		}
		s := mongostore.New(client, cfg.Database.MongoDB)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info("mongodb connected", "db", cfg.Database.MongoDB)
		return s, nil
	}
}

// OpenDBWithDSN creates and configures a MySQL connection pool for dsn.
func OpenDBWithDSN(ctx context.Context, dsn string) (*sql.DB, error) {
	// 1. Open a new connection pool.
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	// 2. Configure the connection pool settings.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 3. Ping the database to verify the connection.
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// OpenMongo connects to uri and verifies the primary is reachable.
func OpenMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}
