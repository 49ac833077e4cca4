// Package store owns the embedded sqlite database: opening it, applying
// migrations, change notifications and the transaction helper the
// repositories build on.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	sqlitemig "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"hockeyshop/database"
)

// Table names used for change notifications.
const (
	TableUsers      = "users"
	TableSession    = "current_session"
	TableCategories = "categories"
	TableProducts   = "products"
	TableCarts      = "carts"
	TableOrders     = "orders"
	TableOrderItems = "order_items"
)

type Store struct {
	db  *sqlx.DB
	bus *Bus
	log *zap.Logger
}

// Open opens (creating if needed) the sqlite database at path and brings
// the schema up to date.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := "file:" + path + "?" + url.Values{
		"_pragma": []string{
			"foreign_keys(1)",
			"journal_mode(WAL)",
			"busy_timeout(5000)",
		},
	}.Encode()

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer keeps sqlite's locking out of the picture.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, bus: NewBus(), log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("store opened", zap.String("path", path))
	return s, nil
}

func (s *Store) migrate() error {
	src, err := iofs.New(database.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	drv, err := sqlitemig.WithInstance(s.db.DB, &sqlitemig.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	mig, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := mig.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.bus.Close()
	return s.db.Close()
}

// DB exposes the underlying handle for reads and standalone writes.
// Writers must call Notify afterwards so live queries re-run.
func (s *Store) DB() *sqlx.DB { return s.db }

// ChangeBus is the commit notification fanout for live queries.
func (s *Store) ChangeBus() *Bus { return s.bus }

// Notify reports committed writes to the given tables.
func (s *Store) Notify(tables ...string) { s.bus.Notify(tables...) }

// WithTx runs fn inside a transaction, rolling back on error and
// notifying the listed tables only after a successful commit.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error, tables ...string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	if len(tables) > 0 {
		s.bus.Notify(tables...)
	}
	return nil
}
