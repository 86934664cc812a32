package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/scholarport/scholarship-api/internal/database"
)

// Stats is the admin dashboard snapshot.
type Stats struct {
	TotalUsers           int            `json:"total_users"`
	TotalScholarships    int            `json:"total_scholarships"`
	ActiveScholarships   int            `json:"active_scholarships"`
	TotalApplications    int            `json:"total_applications"`
	RecentApplications   int            `json:"recent_applications"`
	ApplicationsByStatus map[string]int `json:"applications_by_status"`
}

// Repository runs the aggregate queries behind the admin dashboard
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// GetStats collects dashboard counts. Recent means the last 30 days.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ApplicationsByStatus: make(map[string]int),
	}

	var err error
	if stats.TotalUsers, err = r.db.NewSelect().Model((*database.User)(nil)).Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.TotalScholarships, err = r.db.NewSelect().Model((*database.Scholarship)(nil)).Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count scholarships: %w", err)
	}
	if stats.ActiveScholarships, err = r.db.NewSelect().
		Model((*database.Scholarship)(nil)).
		Where("is_active = ?", true).
		Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count active scholarships: %w", err)
	}
	if stats.TotalApplications, err = r.db.NewSelect().Model((*database.Application)(nil)).Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	if stats.RecentApplications, err = r.db.NewSelect().
		Model((*database.Application)(nil)).
		Where("submitted_at >= ?", thirtyDaysAgo).
		Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count recent applications: %w", err)
	}

	var statusCounts []struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}
	err = r.db.NewSelect().
		Model((*database.Application)(nil)).
		Column("status").
		ColumnExpr("count(*) AS count").
		Group("status").
		Scan(ctx, &statusCounts)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications by status: %w", err)
	}
	for _, sc := range statusCounts {
		stats.ApplicationsByStatus[sc.Status] = sc.Count
	}

	return stats, nil
}
