package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/scholarport/scholarship-api/internal/database"
)

var (
	ErrNotFound  = errors.New("application not found")
	ErrDuplicate = errors.New("application already exists for this scholarship")
)

// ListParams filters the student's own applications.
type ListParams struct {
	StudentID        uuid.UUID
	Status           *Status
	ScholarshipTitle string
	Page             int
	PerPage          int
}

// Repository handles application persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new pending application. The unique constraint on
// (student_id, scholarship_id) rejects a second application.
func (r *Repository) Create(ctx context.Context, studentID, scholarshipID uuid.UUID, essay *string) (*Application, error) {
	dba := &database.Application{
		StudentID:     studentID,
		ScholarshipID: scholarshipID,
		Status:        StatusPending.String(),
		Essay:         essay,
	}

	_, err := r.db.NewInsert().
		Model(dba).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return mapDBApplicationToModel(dba)
}

// GetByID retrieves an application with its scholarship summary
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Application, error) {
	dba := new(database.Application)
	err := r.db.NewSelect().
		Model(dba).
		Relation("Scholarship").
		Where("a.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return mapDBApplicationToModel(dba)
}

// ListByStudent returns a page of the student's applications, newest
// first, with optional status and scholarship-title filters
func (r *Repository) ListByStudent(ctx context.Context, params ListParams) ([]*Application, int, error) {
	var dbApplications []*database.Application

	q := r.db.NewSelect().
		Model(&dbApplications).
		Relation("Scholarship").
		Where("a.student_id = ?", params.StudentID)

	if params.Status != nil {
		q = q.Where("a.status = ?", params.Status.String())
	}
	if params.ScholarshipTitle != "" {
		q = q.Where("scholarship.title ILIKE ?", "%"+params.ScholarshipTitle+"%")
	}

	total, err := q.Order("a.submitted_at DESC").
		Limit(params.PerPage).
		Offset((params.Page - 1) * params.PerPage).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}

	applications := make([]*Application, 0, len(dbApplications))
	for _, dba := range dbApplications {
		app, err := mapDBApplicationToModel(dba)
		if err != nil {
			return nil, 0, err
		}
		applications = append(applications, app)
	}

	return applications, total, nil
}

// Review updates status and notes and stamps the reviewer
func (r *Repository) Review(ctx context.Context, id uuid.UUID, status *Status, notes *string, reviewerID uuid.UUID) (*Application, error) {
	now := time.Now()

	q := r.db.NewUpdate().
		Model((*database.Application)(nil)).
		Set("reviewed_at = ?", now).
		Set("reviewed_by = ?", reviewerID).
		Where("id = ?", id)

	if status != nil {
		q = q.Set("status = ?", status.String())
	}
	if notes != nil {
		q = q.Set("notes = ?", *notes)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to review application: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}
