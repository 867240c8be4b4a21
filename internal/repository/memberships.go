package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/internal/models"
)

// AddMember inserts a membership row unless one exists. created is false
// when the user had already joined.
func (q *Queries) AddMember(ctx context.Context, projectID, userID uuid.UUID, joinedAt time.Time) (created bool, err error) {
	n, err := q.exec(ctx,
		`INSERT INTO project_memberships (project_id, user_id, joined_at) VALUES (?, ?, ?)
		 ON CONFLICT (project_id, user_id) DO NOTHING`,
		projectID, userID, joinedAt)
	if err != nil {
		return false, fmt.Errorf("insert membership: %w", err)
	}
	return n > 0, nil
}

func (q *Queries) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var n int
	err := q.get(ctx, &n,
		`SELECT COUNT(*) FROM project_memberships WHERE project_id = ? AND user_id = ?`,
		projectID, userID)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return n > 0, nil
}

func (q *Queries) Members(ctx context.Context, projectID uuid.UUID) ([]models.Membership, error) {
	var members []models.Membership
	err := q.selectAll(ctx, &members,
		`SELECT project_id, user_id, joined_at FROM project_memberships WHERE project_id = ? ORDER BY joined_at, user_id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (q *Queries) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	n, err := q.exec(ctx,
		`DELETE FROM project_memberships WHERE project_id = ? AND user_id = ?`,
		projectID, userID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete membership: %w", apperr.ErrNotFound)
	}
	return nil
}

func (q *Queries) DeleteMembershipsOfUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := q.exec(ctx, `DELETE FROM project_memberships WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user memberships: %w", err)
	}
	return nil
}
