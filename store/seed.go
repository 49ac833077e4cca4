package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// Seed inserts the default categories and the demo accounts on a fresh
// database. Both steps are guarded by existence checks, so calling Seed
// on every startup is safe.
func (s *Store) Seed(ctx context.Context) error {
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := seedCategories(ctx, tx); err != nil {
			return err
		}
		return seedUsers(ctx, tx)
	}, TableCategories, TableUsers)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.log.Info("seed data verified")
	return nil
}

func seedCategories(ctx context.Context, tx *sqlx.Tx) error {
	var count int
	query, args, err := qb.Select("COUNT(*)").From(TableCategories).ToSql()
	if err != nil {
		return err
	}
	if err := tx.GetContext(ctx, &count, query, args...); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []struct {
		id          int
		name        string
		description string
	}{
		{1, "Sticks", "Category for sticks"},
		{2, "Skates", "Category for skates"},
		{3, "Uniform", "Category for uniform"},
		{4, "Equipment", "Category for equipment"},
	}
	ins := qb.Insert(TableCategories).Columns("id", "name", "description")
	for _, c := range defaults {
		ins = ins.Values(c.id, c.name, c.description)
	}
	query, args, err = ins.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func seedUsers(ctx context.Context, tx *sqlx.Tx) error {
	var count int
	query, args, err := qb.Select("COUNT(*)").From(TableUsers).
		Where(squirrel.Eq{"email": "admin@example.com"}).ToSql()
	if err != nil {
		return err
	}
	if err := tx.GetContext(ctx, &count, query, args...); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	demo := []struct {
		id       string
		name     string
		email    string
		password string
		role     string
		phone    string
		address  string
	}{
		{"admin-user-id", "Administrator", "admin@example.com", "admin123", "ADMIN",
			"+1 555 0100", "1 Demo Street"},
		{"regular-user-id", "Demo User", "user@example.com", "user123", "USER",
			"+1 555 0101", "2 Demo Street"},
	}

	now := time.Now().UTC()
	for _, u := range demo {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		query, args, err := qb.Insert(TableUsers).
			Columns("id", "name", "email", "password_hash", "role", "phone", "address",
				"created_at", "updated_at").
			Values(u.id, u.name, u.email, string(hash), u.role, u.phone, u.address, now, now).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}
