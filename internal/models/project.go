package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id"`
	Handle       string    `db:"handle"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Project is owned by exactly one user. TaskCount mirrors COUNT(tasks) and is
// maintained in the same transaction as every task insert or delete.
type Project struct {
	ID             uuid.UUID `db:"id"`
	OwnerID        uuid.UUID `db:"owner_id"`
	Name           string    `db:"name"`
	Color          string    `db:"color"`
	InvitationCode string    `db:"invitation_code"`
	TaskCount      int       `db:"task_count"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Membership is a collaborator row. Owners never need one.
type Membership struct {
	ProjectID uuid.UUID `db:"project_id"`
	UserID    uuid.UUID `db:"user_id"`
	JoinedAt  time.Time `db:"joined_at"`
}

// Overview holds the dashboard aggregates for one user
type Overview struct {
	ProjectCount      int
	CollaboratorCount int
	TasksAssigned     []Task
}
