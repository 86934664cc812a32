package scholarship

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/scholarport/scholarship-api/internal/database"
)

var ErrNotFound = errors.New("scholarship not found")

// CreateParams carries the fields of a new listing.
type CreateParams struct {
	Title               string
	Description         string
	Amount              float64
	Deadline            time.Time
	EligibilityCriteria *string
	ContactEmail        *string
	Website             *string
	CreatedBy           uuid.UUID
}

// SearchParams are the filter/sort knobs for Search. Zero values mean
// "no constraint".
type SearchParams struct {
	Query          string
	MinAmount      *float64
	MaxAmount      *float64
	DeadlineBefore *time.Time
	DeadlineAfter  *time.Time
	SortBy         string // deadline, amount, title
	SortOrder      string // asc, desc
	Page           int
	PerPage        int
}

// Repository handles scholarship persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns a page of active scholarships ordered by deadline
func (r *Repository) List(ctx context.Context, page, perPage int) ([]*Scholarship, int, error) {
	var dbScholarships []*database.Scholarship

	total, err := r.db.NewSelect().
		Model(&dbScholarships).
		Where("is_active = ?", true).
		Order("deadline ASC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list scholarships: %w", err)
	}

	return mapAll(dbScholarships), total, nil
}

// GetByID retrieves a scholarship by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Scholarship, error) {
	dbs := new(database.Scholarship)
	err := r.db.NewSelect().
		Model(dbs).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get scholarship: %w", err)
	}

	return mapDBScholarshipToModel(dbs), nil
}

// Create inserts a new scholarship
func (r *Repository) Create(ctx context.Context, params CreateParams) (*Scholarship, error) {
	dbs := &database.Scholarship{
		Title:               params.Title,
		Description:         params.Description,
		Amount:              params.Amount,
		Deadline:            params.Deadline,
		EligibilityCriteria: params.EligibilityCriteria,
		ContactEmail:        params.ContactEmail,
		Website:             params.Website,
		IsActive:            true,
		CreatedBy:           &params.CreatedBy,
	}

	_, err := r.db.NewInsert().
		Model(dbs).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create scholarship: %w", err)
	}

	return mapDBScholarshipToModel(dbs), nil
}

// ToggleActive flips is_active and returns the updated row
func (r *Repository) ToggleActive(ctx context.Context, id uuid.UUID) (*Scholarship, error) {
	dbs := new(database.Scholarship)
	err := r.db.NewUpdate().
		Model(dbs).
		Set("is_active = NOT is_active").
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to toggle scholarship: %w", err)
	}

	return mapDBScholarshipToModel(dbs), nil
}

// Search filters and sorts active scholarships
func (r *Repository) Search(ctx context.Context, params SearchParams) ([]*Scholarship, int, error) {
	var dbScholarships []*database.Scholarship

	q := r.db.NewSelect().
		Model(&dbScholarships).
		Where("is_active = ?", true)

	if params.Query != "" {
		pattern := "%" + params.Query + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("title ILIKE ?", pattern).
				WhereOr("description ILIKE ?", pattern).
				WhereOr("eligibility_criteria ILIKE ?", pattern)
		})
	}

	if params.MinAmount != nil {
		q = q.Where("amount >= ?", *params.MinAmount)
	}
	if params.MaxAmount != nil {
		q = q.Where("amount <= ?", *params.MaxAmount)
	}
	if params.DeadlineBefore != nil {
		q = q.Where("deadline <= ?", *params.DeadlineBefore)
	}
	if params.DeadlineAfter != nil {
		q = q.Where("deadline >= ?", *params.DeadlineAfter)
	}

	column := "deadline"
	switch params.SortBy {
	case "amount":
		column = "amount"
	case "title":
		column = "title"
	}
	direction := "ASC"
	if params.SortOrder == "desc" {
		direction = "DESC"
	}
	q = q.Order(column + " " + direction)

	total, err := q.Limit(params.PerPage).
		Offset((params.Page - 1) * params.PerPage).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search scholarships: %w", err)
	}

	return mapAll(dbScholarships), total, nil
}

func mapAll(dbScholarships []*database.Scholarship) []*Scholarship {
	scholarships := make([]*Scholarship, 0, len(dbScholarships))
	for _, dbs := range dbScholarships {
		scholarships = append(scholarships, mapDBScholarshipToModel(dbs))
	}
	return scholarships
}
