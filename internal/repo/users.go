package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/craftchain/marketplace-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

func (r *postgresRepo) CreateUser(ctx context.Context, u entities.User) error {
	query, args := r.qb.Insert("users").
		Columns("id", "email", "password_hash", "first_name", "last_name", "is_seller", "created_at").
		Values(u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Seller, u.CreatedAt).
		MustSql()

	_, err := r.execContext(ctx, query, args...)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return entities.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetUserByEmail(ctx context.Context, email string) (entities.User, error) {
	query, args := r.qb.Select(
		"id", "email", "password_hash", "first_name", "last_name", "is_seller", "created_at").
		From("users").
		Where(sq.Eq{"email": email}).
		MustSql()

	var user User
	err := r.getContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.User{}, entities.ErrUserNotFound
	}
	if err != nil {
		return entities.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return UserToEntity(user), nil
}

func (r *postgresRepo) GetUserByID(ctx context.Context, id string) (entities.User, error) {
	query, args := r.qb.Select(
		"id", "email", "password_hash", "first_name", "last_name", "is_seller", "created_at").
		From("users").
		Where(sq.Eq{"id": id}).
		MustSql()

	var user User
	err := r.getContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.User{}, entities.ErrUserNotFound
	}
	if err != nil {
		return entities.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return UserToEntity(user), nil
}
