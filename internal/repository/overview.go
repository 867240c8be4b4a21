package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gurkanbulca/teamboard/internal/models"
)

// Overview computes the dashboard aggregates for one user
func (q *Queries) Overview(ctx context.Context, userID uuid.UUID) (*models.Overview, error) {
	var projectCount int
	err := q.get(ctx, &projectCount, `
		SELECT COUNT(*) FROM projects
		WHERE owner_id = ?
		   OR id IN (SELECT project_id FROM project_memberships WHERE user_id = ?)`,
		userID, userID)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	// Everyone who shares at least one project with the user.
	var collaborators int
	err = q.get(ctx, &collaborators, `
		SELECT COUNT(DISTINCT c.uid) FROM (
			SELECT m.user_id AS uid FROM project_memberships m
				JOIN projects p ON p.id = m.project_id WHERE p.owner_id = ?
			UNION
			SELECT p.owner_id AS uid FROM projects p
				JOIN project_memberships m ON m.project_id = p.id WHERE m.user_id = ?
			UNION
			SELECT m2.user_id AS uid FROM project_memberships m1
				JOIN project_memberships m2 ON m2.project_id = m1.project_id WHERE m1.user_id = ?
		) c WHERE c.uid <> ?`,
		userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("count collaborators: %w", err)
	}

	assigned, err := q.TasksAssignedTo(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.Overview{
		ProjectCount:      projectCount,
		CollaboratorCount: collaborators,
		TasksAssigned:     assigned,
	}, nil
}
