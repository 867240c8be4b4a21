package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/internal/models"
)

func (q *Queries) CreateUser(ctx context.Context, u *models.User) error {
	_, err := q.exec(ctx,
		`INSERT INTO users (id, handle, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Handle, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (q *Queries) UserByHandle(ctx context.Context, handle string) (*models.User, error) {
	var u models.User
	if err := q.get(ctx, &u, `SELECT id, handle, password_hash, created_at FROM users WHERE handle = ?`, handle); err != nil {
		return nil, fmt.Errorf("get user by handle: %w", err)
	}
	return &u, nil
}

func (q *Queries) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := q.get(ctx, &u, `SELECT id, handle, password_hash, created_at FROM users WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (q *Queries) DeleteUser(ctx context.Context, id uuid.UUID) error {
	n, err := q.exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete user: %w", apperr.ErrNotFound)
	}
	return nil
}
