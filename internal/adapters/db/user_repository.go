// internal/adapters/db/user_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
)

// UserRepository implements ports.UserRepository
type UserRepository struct {
	db     *Database
	logger *slog.Logger
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new user repository
func NewUserRepository(db *Database, logger *slog.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "user")),
	}
}

func selectUsers() squirrel.SelectBuilder {
	return psql.Select(
		"g.id", "g.email", "g.password_hash", "g.onderneming_id",
		"COALESCE(o.naam, '')", "g.created_at", "g.updated_at",
	).From("gebruiker g").
		LeftJoin("onderneming o ON o.id = g.onderneming_id")
}

// FindByEmail looks an account up case-insensitively
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query, args, err := selectUsers().
		Where("lower(g.email) = ?", strings.ToLower(strings.TrimSpace(email))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}
	return r.scanOne(ctx, query, args...)
}

// FindByID looks an account up by id
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query, args, err := selectUsers().Where(squirrel.Eq{"g.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}
	return r.scanOne(ctx, query, args...)
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query, args, err := psql.Update("gebruiker").
		Set("password_hash", passwordHash).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	r.logger.InfoContext(ctx, "password updated", slog.String("user_id", id.String()))
	return nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var (
		u         domain.User
		companyID *uuid.UUID
	)
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &companyID, &u.CompanyName, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if companyID != nil {
		u.CompanyID = *companyID
	}
	return &u, nil
}
