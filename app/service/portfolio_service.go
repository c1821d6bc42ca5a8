package service

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mohdfarhan01/ACADVault/app/aggregate"
	"github.com/mohdfarhan01/ACADVault/app/apperror"
	"github.com/mohdfarhan01/ACADVault/app/credential"
	"github.com/mohdfarhan01/ACADVault/app/model"
	"github.com/mohdfarhan01/ACADVault/app/repo"
	"github.com/mohdfarhan01/ACADVault/helper"
)

// PortfolioService owns the derived per-student portfolio: from-scratch
// recomputation, visibility, and the public read.
type PortfolioService struct {
	activities repo.ActivityRepository
	portfolios repo.PortfolioRepository
	users      repo.UserRepository
	issuer     *credential.Issuer
}

func NewPortfolioService(activities repo.ActivityRepository, portfolios repo.PortfolioRepository, users repo.UserRepository, issuer *credential.Issuer) *PortfolioService {
	return &PortfolioService{
		activities: activities,
		portfolios: portfolios,
		users:      users,
		issuer:     issuer,
	}
}

// Recompute rebuilds the portfolio stats from the current activity set.
// Idempotent, and safe under concurrent calls: every writer persists stats
// derived wholly from a then-current snapshot in a single upsert.
func (s *PortfolioService) Recompute(ctx context.Context, studentID uuid.UUID) (*model.Portfolio, error) {
	refs, err := s.activities.FindRefsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	stats := aggregate.Compute(refs)
	if err := s.portfolios.UpsertStats(ctx, studentID, stats, time.Now()); err != nil {
		return nil, err
	}

	return s.portfolios.Find(ctx, studentID)
}

// /api/v1/portfolio/my-portfolio
func (s *PortfolioService) My(c *fiber.Ctx) error {
	studentID, role := actor(c)
	if !role.CanSubmit() {
		return writeError(c, apperror.Unauthorized("students only"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	// Recompute on read so a missed post-transition refresh can never be
	// served as stale data.
	portfolio, err := s.Recompute(ctx, studentID)
	if err != nil {
		return writeError(c, err)
	}

	activities, err := s.activities.FindByStudent(ctx, studentID, false)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.attachCredentialValidity(ctx, studentID, activities); err != nil {
		return writeError(c, err)
	}

	resp := toPortfolioResponse(portfolio, activities)
	return c.JSON(model.SuccessResponse[*model.PortfolioResponse]{Success: true, Data: resp})
}

// /api/v1/portfolio/my-portfolio (PUT)
func (s *PortfolioService) UpdateVisibility(c *fiber.Ctx) error {
	studentID, role := actor(c)
	if !role.CanSubmit() {
		return writeError(c, apperror.Unauthorized("students only"))
	}

	var req model.UpdatePortfolioRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: "Invalid input"})
	}
	if err := helper.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: helper.FormatValidationErrors(err)})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.portfolios.SetVisibility(ctx, studentID, req.Visibility); err != nil {
		return writeError(c, err)
	}
	return c.JSON(model.SuccessMessageResponse{Success: true, Message: "Visibility updated"})
}

// /api/v1/portfolio/public/:studentId (public)
func (s *PortfolioService) Public(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("studentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: "Invalid StudentId"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := s.public(ctx, studentID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(model.SuccessResponse[*model.PortfolioResponse]{Success: true, Data: resp})
}

// public returns the redacted portfolio view. A private portfolio yields a
// generic not-found, so a recruiter cannot tell "private" from
// "no such student".
func (s *PortfolioService) public(ctx context.Context, studentID uuid.UUID) (*model.PortfolioResponse, error) {
	visibility, err := s.portfolios.Visibility(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if visibility != model.VisibilityPublic {
		return nil, apperror.NotFound("portfolio")
	}

	portfolio, err := s.Recompute(ctx, studentID)
	if err != nil {
		return nil, err
	}

	activities, err := s.activities.FindByStudent(ctx, studentID, true)
	if err != nil {
		return nil, err
	}
	if err := s.attachCredentialValidity(ctx, studentID, activities); err != nil {
		return nil, err
	}

	resp := toPortfolioResponse(portfolio, activities)
	if user, err := s.users.FindByID(ctx, studentID); err == nil {
		resp.StudentName = user.FullName
	}
	return resp, nil
}

// attachCredentialValidity marks each verified activity with the result of
// re-checking its signature. Tampering shows up on every credential-bearing
// read; nothing is auto-repaired. A failed re-read fails the whole request:
// serving a credential without its validity flag would hide corruption.
func (s *PortfolioService) attachCredentialValidity(ctx context.Context, studentID uuid.UUID, activities []model.ActivityResponse) error {
	refs, err := s.activities.FindRefsByStudent(ctx, studentID)
	if err != nil {
		return err
	}
	validByID := make(map[uuid.UUID]bool, len(refs))
	for _, ref := range refs {
		if ref.Status == model.StatusVerified {
			validByID[ref.ID] = s.issuer.VerifyCredential(ref)
		}
	}
	for i := range activities {
		if valid, ok := validByID[activities[i].ID]; ok {
			v := valid
			activities[i].CredentialValid = &v
		}
	}
	return nil
}

func toPortfolioResponse(p *model.Portfolio, activities []model.ActivityResponse) *model.PortfolioResponse {
	return &model.PortfolioResponse{
		StudentID:        p.StudentID,
		Visibility:       p.Visibility,
		TotalActivities:  p.Stats.TotalActivities,
		VerifiedCount:    p.Stats.VerifiedCount,
		PendingCount:     p.Stats.PendingCount,
		RejectedCount:    p.Stats.RejectedCount,
		TotalPoints:      p.Stats.TotalPoints,
		LastRecomputedAt: p.LastRecomputedAt,
		Activities:       activities,
	}
}
