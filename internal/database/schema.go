package database

import (
	"context"
	"fmt"
	"log"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
	"github.com/jmoiron/sqlx"
)

// Table names
const (
	UsersTable       = "users"
	ProjectsTable    = "projects"
	MembershipsTable = "project_memberships"
	TasksTable       = "tasks"
)

var (
	usersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "handle", Type: field.TypeString, Unique: true, Size: 50},
		{Name: "password_hash", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
	}
	usersTable = &schema.Table{
		Name:       UsersTable,
		Columns:    usersColumns,
		PrimaryKey: []*schema.Column{usersColumns[0]},
	}

	projectsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString},
		{Name: "color", Type: field.TypeString, Default: "blue"},
		{Name: "invitation_code", Type: field.TypeString, Unique: true, Size: 12},
		{Name: "task_count", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
		{Name: "owner_id", Type: field.TypeUUID},
	}
	projectsTable = &schema.Table{
		Name:       ProjectsTable,
		Columns:    projectsColumns,
		PrimaryKey: []*schema.Column{projectsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "projects_users_owned_projects",
				Columns:    []*schema.Column{projectsColumns[7]},
				RefColumns: []*schema.Column{usersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "project_owner_id", Columns: []*schema.Column{projectsColumns[7]}},
		},
	}

	membershipsColumns = []*schema.Column{
		{Name: "project_id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "joined_at", Type: field.TypeTime},
	}
	// The composite primary key is the "join at most once" constraint.
	membershipsTable = &schema.Table{
		Name:       MembershipsTable,
		Columns:    membershipsColumns,
		PrimaryKey: []*schema.Column{membershipsColumns[0], membershipsColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "project_memberships_projects_members",
				Columns:    []*schema.Column{membershipsColumns[0]},
				RefColumns: []*schema.Column{projectsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "project_memberships_users_memberships",
				Columns:    []*schema.Column{membershipsColumns[1]},
				RefColumns: []*schema.Column{usersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "projectmembership_user_id", Columns: []*schema.Column{membershipsColumns[1]}},
		},
	}

	tasksColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "title", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "status", Type: field.TypeEnum, Enums: []string{"backlog", "in_progress", "done"}, Default: "backlog"},
		{Name: "priority", Type: field.TypeEnum, Enums: []string{"low", "medium", "high"}, Default: "medium"},
		{Name: "start_date", Type: field.TypeTime, Nullable: true},
		{Name: "end_date", Type: field.TypeTime, Nullable: true},
		{Name: "position", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
		{Name: "project_id", Type: field.TypeUUID},
		{Name: "assignee_id", Type: field.TypeUUID, Nullable: true},
	}
	tasksTable = &schema.Table{
		Name:       TasksTable,
		Columns:    tasksColumns,
		PrimaryKey: []*schema.Column{tasksColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "tasks_projects_tasks",
				Columns:    []*schema.Column{tasksColumns[10]},
				RefColumns: []*schema.Column{projectsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "tasks_users_assigned_tasks",
				Columns:    []*schema.Column{tasksColumns[11]},
				RefColumns: []*schema.Column{usersColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{Name: "task_project_id_status_position", Columns: []*schema.Column{tasksColumns[10], tasksColumns[3], tasksColumns[7]}},
			{Name: "task_assignee_id", Columns: []*schema.Column{tasksColumns[11]}},
		},
	}

	// Tables holds all the tables in the schema, parents first.
	Tables = []*schema.Table{usersTable, projectsTable, membershipsTable, tasksTable}
)

func init() {
	projectsTable.ForeignKeys[0].RefTable = usersTable
	membershipsTable.ForeignKeys[0].RefTable = projectsTable
	membershipsTable.ForeignKeys[1].RefTable = usersTable
	tasksTable.ForeignKeys[0].RefTable = projectsTable
	tasksTable.ForeignKeys[1].RefTable = usersTable
}

// Migrate creates or updates the schema in place
func Migrate(ctx context.Context, db *sqlx.DB) error {
	log.Println("🔄 Running auto migration...")

	if db.DriverName() == dialect.SQLite {
		// The migrator may hold a transaction while inspecting on another connection.
		db.SetMaxOpenConns(0)
		defer configurePool(db)
	}

	drv := entsql.OpenDB(db.DriverName(), db.DB)
	migrate, err := schema.NewMigrate(
		drv,
		schema.WithDropIndex(true),
		schema.WithDropColumn(true),
		schema.WithForeignKeys(true),
	)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := migrate.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("run auto migration: %w", err)
	}

	log.Println("✅ Auto migration completed")
	return nil
}
