package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mohdfarhan01/ACADVault/app/model"
)

type PortfolioRepository interface {
	Find(ctx context.Context, studentID uuid.UUID) (*model.Portfolio, error)
	// UpsertStats replaces the derived columns in one statement. Visibility
	// is student-owned metadata and is left untouched.
	UpsertStats(ctx context.Context, studentID uuid.UUID, stats model.PortfolioStats, recomputedAt time.Time) error
	SetVisibility(ctx context.Context, studentID uuid.UUID, visibility model.Visibility) error
	Visibility(ctx context.Context, studentID uuid.UUID) (model.Visibility, error)
}

type PortfolioRepo struct {
	pgDB *sql.DB
}

var _ PortfolioRepository = (*PortfolioRepo)(nil)

func NewPortfolioRepo(pgDB *sql.DB) *PortfolioRepo {
	return &PortfolioRepo{pgDB: pgDB}
}

func (r *PortfolioRepo) Find(ctx context.Context, studentID uuid.UUID) (*model.Portfolio, error) {
	query := `
		SELECT student_id, visibility, total_activities, verified_count, pending_count,
		       rejected_count, total_points, source_checksum, last_recomputed_at
		FROM portfolios WHERE student_id = $1`

	var p model.Portfolio
	var recomputedAt sql.NullTime
	err := r.pgDB.QueryRowContext(ctx, query, studentID).Scan(
		&p.StudentID, &p.Visibility, &p.Stats.TotalActivities, &p.Stats.VerifiedCount,
		&p.Stats.PendingCount, &p.Stats.RejectedCount, &p.Stats.TotalPoints,
		&p.Stats.SourceChecksum, &recomputedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// No activities ever recomputed yet: an empty private portfolio.
		return &model.Portfolio{StudentID: studentID, Visibility: model.VisibilityPrivate}, nil
	}
	if err != nil {
		return nil, err
	}
	if recomputedAt.Valid {
		p.LastRecomputedAt = &recomputedAt.Time
	}
	return &p, nil
}

func (r *PortfolioRepo) UpsertStats(ctx context.Context, studentID uuid.UUID, stats model.PortfolioStats, recomputedAt time.Time) error {
	query := `
		INSERT INTO portfolios (student_id, visibility, total_activities, verified_count,
		                        pending_count, rejected_count, total_points, source_checksum, last_recomputed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id) DO UPDATE SET
			total_activities = EXCLUDED.total_activities,
			verified_count = EXCLUDED.verified_count,
			pending_count = EXCLUDED.pending_count,
			rejected_count = EXCLUDED.rejected_count,
			total_points = EXCLUDED.total_points,
			source_checksum = EXCLUDED.source_checksum,
			last_recomputed_at = EXCLUDED.last_recomputed_at`

	_, err := r.pgDB.ExecContext(ctx, query,
		studentID, model.VisibilityPrivate,
		stats.TotalActivities, stats.VerifiedCount, stats.PendingCount,
		stats.RejectedCount, stats.TotalPoints, stats.SourceChecksum, recomputedAt,
	)
	return err
}

func (r *PortfolioRepo) SetVisibility(ctx context.Context, studentID uuid.UUID, visibility model.Visibility) error {
	query := `
		INSERT INTO portfolios (student_id, visibility)
		VALUES ($1, $2)
		ON CONFLICT (student_id) DO UPDATE SET visibility = EXCLUDED.visibility`

	_, err := r.pgDB.ExecContext(ctx, query, studentID, visibility)
	return err
}

func (r *PortfolioRepo) Visibility(ctx context.Context, studentID uuid.UUID) (model.Visibility, error) {
	var v model.Visibility
	err := r.pgDB.QueryRowContext(ctx,
		`SELECT visibility FROM portfolios WHERE student_id = $1`, studentID,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return model.VisibilityPrivate, nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}
