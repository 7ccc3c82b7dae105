package pgstore

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableUsers          = "users"
	tableEstablishments = "establishments"
	tableDepartments    = "departments"
	tableInternships    = "internships"
	tableApplications   = "applications"
	tableEvaluations    = "evaluations"
	tableNotifications  = "notifications"
)

var (
	UsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "full_name", Type: field.TypeString, Size: 255},
		{Name: "email", Type: field.TypeString, Size: 255, Unique: true},
		{Name: "role", Type: field.TypeEnum, Enums: []string{"student", "service_chief", "doctor", "dean"}},
		{Name: "created_at", Type: field.TypeTime},
	}
	UsersTable = &schema.Table{
		Name:       tableUsers,
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
		Indexes: []*schema.Index{
			{Name: "user_role", Columns: []*schema.Column{UsersColumns[3]}},
		},
	}

	EstablishmentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString, Size: 255},
	}
	EstablishmentsTable = &schema.Table{
		Name:       tableEstablishments,
		Columns:    EstablishmentsColumns,
		PrimaryKey: []*schema.Column{EstablishmentsColumns[0]},
	}

	DepartmentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString, Size: 255},
		{Name: "establishment_id", Type: field.TypeUUID},
		{Name: "chief_id", Type: field.TypeUUID, Nullable: true},
	}
	DepartmentsTable = &schema.Table{
		Name:       tableDepartments,
		Columns:    DepartmentsColumns,
		PrimaryKey: []*schema.Column{DepartmentsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "departments_establishments_departments",
				Columns:    []*schema.Column{DepartmentsColumns[2]},
				RefColumns: []*schema.Column{EstablishmentsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	InternshipsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "title", Type: field.TypeString, Size: 255},
		{Name: "description", Type: field.TypeString, Size: 2147483647},
		{Name: "department_id", Type: field.TypeUUID},
		{Name: "establishment_id", Type: field.TypeUUID},
		{Name: "chief_id", Type: field.TypeUUID, Nullable: true},
		{Name: "created_by", Type: field.TypeUUID},
		{Name: "total_places", Type: field.TypeInt},
		{Name: "filled_places", Type: field.TypeInt, Default: 0},
		{Name: "status", Type: field.TypeEnum, Enums: []string{"active", "full", "archived", "closed"}, Default: "active"},
		{Name: "start_date", Type: field.TypeTime},
		{Name: "end_date", Type: field.TypeTime},
		{Name: "requirements", Type: field.TypeJSON, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	InternshipsTable = &schema.Table{
		Name:       tableInternships,
		Columns:    InternshipsColumns,
		PrimaryKey: []*schema.Column{InternshipsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "internships_departments_internships",
				Columns:    []*schema.Column{InternshipsColumns[3]},
				RefColumns: []*schema.Column{DepartmentsColumns[0]},
				OnDelete:   schema.Restrict,
			},
			{
				Symbol:     "internships_establishments_internships",
				Columns:    []*schema.Column{InternshipsColumns[4]},
				RefColumns: []*schema.Column{EstablishmentsColumns[0]},
				OnDelete:   schema.Restrict,
			},
		},
		Indexes: []*schema.Index{
			{Name: "internship_status", Columns: []*schema.Column{InternshipsColumns[9]}},
			{Name: "internship_department_id", Columns: []*schema.Column{InternshipsColumns[3]}},
			{Name: "internship_chief_id", Columns: []*schema.Column{InternshipsColumns[5]}},
		},
	}

	ApplicationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "student_id", Type: field.TypeUUID},
		{Name: "internship_id", Type: field.TypeUUID},
		{Name: "status", Type: field.TypeEnum, Enums: []string{"pending", "accepted", "rejected", "cancelled"}, Default: "pending"},
		{Name: "motivation", Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: "applied_at", Type: field.TypeTime},
		{Name: "response_at", Type: field.TypeTime, Nullable: true},
		{Name: "reviewed_by", Type: field.TypeUUID, Nullable: true},
		{Name: "rejection_reason", Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: "cancelled_at", Type: field.TypeTime, Nullable: true},
	}
	ApplicationsTable = &schema.Table{
		Name:       tableApplications,
		Columns:    ApplicationsColumns,
		PrimaryKey: []*schema.Column{ApplicationsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "applications_internships_applications",
				Columns:    []*schema.Column{ApplicationsColumns[2]},
				RefColumns: []*schema.Column{InternshipsColumns[0]},
				OnDelete:   schema.Restrict,
			},
		},
		Indexes: []*schema.Index{
			// One pending or accepted application per student and internship.
			{
				Name:       "application_student_id_internship_id_active",
				Unique:     true,
				Columns:    []*schema.Column{ApplicationsColumns[1], ApplicationsColumns[2]},
				Annotation: &entsql.IndexAnnotation{Where: "status IN ('pending', 'accepted')"},
			},
			{Name: "application_internship_id_status", Columns: []*schema.Column{ApplicationsColumns[2], ApplicationsColumns[3]}},
		},
	}

	EvaluationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "application_id", Type: field.TypeUUID},
		{Name: "student_id", Type: field.TypeUUID},
		{Name: "internship_id", Type: field.TypeUUID},
		{Name: "doctor_id", Type: field.TypeUUID},
		{Name: "status", Type: field.TypeEnum, Enums: []string{"pending", "in_progress", "submitted"}, Default: "pending"},
		{Name: "attendance", Type: field.TypeInt, Nullable: true},
		{Name: "practical_skills", Type: field.TypeInt, Nullable: true},
		{Name: "professional_behavior", Type: field.TypeInt, Nullable: true},
		{Name: "score", Type: field.TypeFloat64, Nullable: true},
		{Name: "comments", Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: "submitted_at", Type: field.TypeTime, Nullable: true},
		{Name: "validated", Type: field.TypeBool, Default: false},
		{Name: "validated_by", Type: field.TypeUUID, Nullable: true},
		{Name: "validated_at", Type: field.TypeTime, Nullable: true},
		{Name: "chief_comments", Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: "reminded_at", Type: field.TypeTime, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	EvaluationsTable = &schema.Table{
		Name:       tableEvaluations,
		Columns:    EvaluationsColumns,
		PrimaryKey: []*schema.Column{EvaluationsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "evaluations_applications_evaluations",
				Columns:    []*schema.Column{EvaluationsColumns[1]},
				RefColumns: []*schema.Column{ApplicationsColumns[0]},
				OnDelete:   schema.Restrict,
			},
			{
				Symbol:     "evaluations_internships_evaluations",
				Columns:    []*schema.Column{EvaluationsColumns[3]},
				RefColumns: []*schema.Column{InternshipsColumns[0]},
				OnDelete:   schema.Restrict,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "evaluation_student_id_internship_id_doctor_id",
				Unique:  true,
				Columns: []*schema.Column{EvaluationsColumns[2], EvaluationsColumns[3], EvaluationsColumns[4]},
			},
			{Name: "evaluation_doctor_id_status", Columns: []*schema.Column{EvaluationsColumns[4], EvaluationsColumns[5]}},
		},
	}

	NotificationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "type", Type: field.TypeEnum, Enums: []string{"info", "success", "warning", "error"}, Default: "info"},
		{Name: "title", Type: field.TypeString, Size: 255},
		{Name: "message", Type: field.TypeString, Size: 2147483647},
		{Name: "related_entity_type", Type: field.TypeString, Size: 64, Nullable: true},
		{Name: "related_entity_id", Type: field.TypeUUID, Nullable: true},
		{Name: "is_read", Type: field.TypeBool, Default: false},
		{Name: "read_at", Type: field.TypeTime, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	NotificationsTable = &schema.Table{
		Name:       tableNotifications,
		Columns:    NotificationsColumns,
		PrimaryKey: []*schema.Column{NotificationsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "notification_user_id_created_at", Columns: []*schema.Column{NotificationsColumns[1], NotificationsColumns[9]}},
			{Name: "notification_user_id_is_read", Columns: []*schema.Column{NotificationsColumns[1], NotificationsColumns[7]}},
		},
	}

	Tables = []*schema.Table{
		UsersTable,
		EstablishmentsTable,
		DepartmentsTable,
		InternshipsTable,
		ApplicationsTable,
		EvaluationsTable,
		NotificationsTable,
	}
)

func init() {
	DepartmentsTable.ForeignKeys[0].RefTable = EstablishmentsTable
	InternshipsTable.ForeignKeys[0].RefTable = DepartmentsTable
	InternshipsTable.ForeignKeys[1].RefTable = EstablishmentsTable
	ApplicationsTable.ForeignKeys[0].RefTable = InternshipsTable
	EvaluationsTable.ForeignKeys[0].RefTable = ApplicationsTable
	EvaluationsTable.ForeignKeys[1].RefTable = InternshipsTable
}

// Migrate creates or upgrades the placement tables.
func Migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv, schema.WithForeignKeys(true))
	if err != nil {
		return fmt.Errorf("pgstore: create migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("pgstore: migrate: %w", err)
	}
	return nil
}
