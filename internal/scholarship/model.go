package scholarship

import (
	"time"

	"github.com/google/uuid"

	"github.com/scholarport/scholarship-api/internal/database"
)

type Scholarship struct {
	ID                  uuid.UUID  `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Amount              float64    `json:"amount"`
	Deadline            time.Time  `json:"deadline"`
	EligibilityCriteria *string    `json:"eligibility_criteria,omitempty"`
	ContactEmail        *string    `json:"contact_email,omitempty"`
	Website             *string    `json:"website,omitempty"`
	IsActive            bool       `json:"is_active"`
	CreatedBy           *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func mapDBScholarshipToModel(dbs *database.Scholarship) *Scholarship {
	return &Scholarship{
		ID:                  dbs.ID,
		Title:               dbs.Title,
		Description:         dbs.Description,
		Amount:              dbs.Amount,
		Deadline:            dbs.Deadline,
		EligibilityCriteria: dbs.EligibilityCriteria,
		ContactEmail:        dbs.ContactEmail,
		Website:             dbs.Website,
		IsActive:            dbs.IsActive,
		CreatedBy:           dbs.CreatedBy,
		CreatedAt:           dbs.CreatedAt,
	}
}
