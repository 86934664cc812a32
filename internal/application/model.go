package application

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scholarport/scholarship-api/internal/database"
)

type Application struct {
	ID            uuid.UUID  `json:"id"`
	StudentID     uuid.UUID  `json:"student_id"`
	ScholarshipID uuid.UUID  `json:"scholarship_id"`
	Status        Status     `json:"status"`
	Essay         *string    `json:"essay,omitempty"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy    *uuid.UUID `json:"reviewed_by,omitempty"`
	Notes         *string    `json:"notes,omitempty"`

	// Scholarship summary, populated on list/detail reads
	Scholarship *ScholarshipSummary `json:"scholarship,omitempty"`
}

// ScholarshipSummary is the slice of scholarship fields embedded in
// application responses.
type ScholarshipSummary struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Amount   float64   `json:"amount"`
	Deadline time.Time `json:"deadline"`
}

func mapDBApplicationToModel(dba *database.Application) (*Application, error) {
	status, err := ParseStatus(dba.Status)
	if err != nil {
		return nil, fmt.Errorf("application %s: %w", dba.ID, err)
	}

	app := &Application{
		ID:            dba.ID,
		StudentID:     dba.StudentID,
		ScholarshipID: dba.ScholarshipID,
		Status:        status,
		Essay:         dba.Essay,
		SubmittedAt:   dba.SubmittedAt,
		ReviewedAt:    dba.ReviewedAt,
		ReviewedBy:    dba.ReviewedBy,
		Notes:         dba.Notes,
	}

	if dba.Scholarship != nil {
		app.Scholarship = &ScholarshipSummary{
			ID:       dba.Scholarship.ID,
			Title:    dba.Scholarship.Title,
			Amount:   dba.Scholarship.Amount,
			Deadline: dba.Scholarship.Deadline,
		}
	}

	return app, nil
}
