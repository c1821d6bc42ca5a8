package model

import (
	"time"

	"github.com/google/uuid"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// PortfolioStats are always derived from the owner's activity set, never
// mutated independently. SourceChecksum fingerprints the (id, version) pairs
// the stats were computed from.
type PortfolioStats struct {
	TotalActivities int    `json:"total_activities"`
	VerifiedCount   int    `json:"verified_count"`
	PendingCount    int    `json:"pending_count"`
	RejectedCount   int    `json:"rejected_count"`
	TotalPoints     int    `json:"total_points"`
	SourceChecksum  string `json:"-"`
}

type Portfolio struct {
	StudentID        uuid.UUID  `json:"student_id"`
	Visibility       Visibility `json:"visibility"`
	Stats            PortfolioStats
	LastRecomputedAt *time.Time `json:"last_recomputed_at,omitempty"`
}

type UpdatePortfolioRequest struct {
	Visibility Visibility `json:"visibility" validate:"required,oneof=public private"`
}

type PortfolioResponse struct {
	StudentID        uuid.UUID          `json:"student_id"`
	StudentName      string             `json:"student_name,omitempty"`
	Visibility       Visibility         `json:"visibility"`
	TotalActivities  int                `json:"total_activities"`
	VerifiedCount    int                `json:"verified_count"`
	PendingCount     int                `json:"pending_count"`
	RejectedCount    int                `json:"rejected_count"`
	TotalPoints      int                `json:"total_points"`
	LastRecomputedAt *time.Time         `json:"last_recomputed_at,omitempty"`
	Activities       []ActivityResponse `json:"activities,omitempty"`
}
