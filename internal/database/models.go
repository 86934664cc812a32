package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted identity record. Action tokens (verification and
// reset) live here as nullable token/expiry column pairs; consuming a
// token clears both columns in the same statement as the state change it
// authorizes.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name          string    `bun:"name,notnull"`
	Email         string    `bun:"email,notnull,unique"`
	PasswordHash  string    `bun:"password_hash,notnull"`
	Role          string    `bun:"role,notnull,default:'student'"`
	EmailVerified bool      `bun:"email_verified,notnull,default:false"`

	VerificationToken          *string    `bun:"verification_token"`
	VerificationTokenExpiresAt *time.Time `bun:"verification_token_expires_at"`
	ResetToken                 *string    `bun:"reset_token"`
	ResetTokenExpiresAt        *time.Time `bun:"reset_token_expires_at"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Scholarship is a listing students can apply to.
type Scholarship struct {
	bun.BaseModel `bun:"table:scholarships,alias:s"`

	ID                  uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Title               string     `bun:"title,notnull"`
	Description         string     `bun:"description,notnull"`
	Amount              float64    `bun:"amount,notnull"`
	Deadline            time.Time  `bun:"deadline,notnull"`
	EligibilityCriteria *string    `bun:"eligibility_criteria"`
	ContactEmail        *string    `bun:"contact_email"`
	Website             *string    `bun:"website"`
	IsActive            bool       `bun:"is_active,notnull,default:true"`
	CreatedBy           *uuid.UUID `bun:"created_by,type:uuid"`
	CreatedAt           time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}

// Application links a student to a scholarship. The (student, scholarship)
// pair is unique so a student cannot apply twice.
type Application struct {
	bun.BaseModel `bun:"table:applications,alias:a"`

	ID            uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	StudentID     uuid.UUID  `bun:"student_id,type:uuid,notnull,unique:applications_student_scholarship"`
	ScholarshipID uuid.UUID  `bun:"scholarship_id,type:uuid,notnull,unique:applications_student_scholarship"`
	Status        string     `bun:"status,notnull,default:'pending'"`
	Essay         *string    `bun:"essay"`
	SubmittedAt   time.Time  `bun:"submitted_at,notnull,default:current_timestamp"`
	ReviewedAt    *time.Time `bun:"reviewed_at"`
	ReviewedBy    *uuid.UUID `bun:"reviewed_by,type:uuid"`
	Notes         *string    `bun:"notes"`

	Scholarship *Scholarship `bun:"rel:belongs-to,join:scholarship_id=id"`
}
