package service

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mohdfarhan01/ACADVault/app/apperror"
	"github.com/mohdfarhan01/ACADVault/app/credential"
	"github.com/mohdfarhan01/ACADVault/app/lifecycle"
	"github.com/mohdfarhan01/ACADVault/app/model"
	"github.com/mohdfarhan01/ACADVault/app/repo"
	"github.com/mohdfarhan01/ACADVault/helper"
)

// Aggregator refreshes a student's derived portfolio.
type Aggregator interface {
	Recompute(ctx context.Context, studentID uuid.UUID) (*model.Portfolio, error)
}

// VerificationService is the gateway for reviewer decisions and public
// credential lookups. It checks actor authority, runs the state machine,
// requests credential issuance and triggers portfolio recomputation.
type VerificationService struct {
	activities repo.ActivityRepository
	portfolios repo.PortfolioRepository
	issuer     *credential.Issuer
	aggregator Aggregator
}

func NewVerificationService(activities repo.ActivityRepository, portfolios repo.PortfolioRepository, issuer *credential.Issuer, aggregator Aggregator) *VerificationService {
	return &VerificationService{
		activities: activities,
		portfolios: portfolios,
		issuer:     issuer,
		aggregator: aggregator,
	}
}

// /api/v1/verification/:id/verify
func (s *VerificationService) Verify(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: "Invalid ActivityId"})
	}

	var req model.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: "Invalid input"})
	}
	if err := helper.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: helper.FormatValidationErrors(err)})
	}

	reviewerID, role := actor(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	ref, err := s.verify(ctx, reviewerID, role, id, req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(model.SuccessResponse[*model.ActivityResponse]{Success: true, Message: "Verified", Data: s.respond(ctx, ref)})
}

// /api/v1/verification/:id/reject
func (s *VerificationService) Reject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: "Invalid ActivityId"})
	}

	var req model.RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: "Invalid input"})
	}
	if err := helper.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: helper.FormatValidationErrors(err)})
	}

	reviewerID, role := actor(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	ref, err := s.reject(ctx, reviewerID, role, id, req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(model.SuccessResponse[*model.ActivityResponse]{Success: true, Message: "Rejected", Data: s.respond(ctx, ref)})
}

// /api/v1/verification/pending
func (s *VerificationService) Pending(c *fiber.Ctx) error {
	_, role := actor(c)
	if !role.CanReview() {
		return writeError(c, apperror.Unauthorized("reviewer capability required"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	data, err := s.activities.FindPending(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(model.SuccessResponse[[]model.ActivityResponse]{Success: true, Data: data})
}

// /api/v1/verification/scan (public)
func (s *VerificationService) Scan(c *fiber.Ctx) error {
	var req model.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: "Invalid input"})
	}
	if err := helper.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: helper.FormatValidationErrors(err)})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.scan(ctx, req.ReferenceToken)
	if err != nil {
		return writeError(c, err)
	}

	message := ""
	if !res.CredentialValid {
		message = "credential signature mismatch: record may have been tampered with"
	}
	return c.JSON(model.SuccessResponse[*model.ScanResponse]{Success: true, Message: message, Data: res})
}

func (s *VerificationService) verify(ctx context.Context, reviewerID uuid.UUID, role model.Role, activityID uuid.UUID, req model.VerifyRequest) (*model.ActivityRef, error) {
	if !role.CanReview() {
		return nil, apperror.Unauthorized("reviewer capability required")
	}

	ref, err := s.activities.FindRefByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updated, err := lifecycle.Verify(*ref, reviewerID, req.Notes, req.Points, req.ExpectedVersion, now)
	if err != nil {
		return nil, err
	}

	// Issue before committing: if issuance fails the activity stays pending.
	cred, err := s.issuer.Issue(ctx, updated, reviewerID, req.Points, now)
	if err != nil {
		return nil, err
	}
	updated.Credential = cred

	if err := s.activities.CommitTransition(ctx, updated, req.ExpectedVersion); err != nil {
		return nil, err
	}

	s.recompute(ctx, updated.StudentID)
	return &updated, nil
}

func (s *VerificationService) reject(ctx context.Context, reviewerID uuid.UUID, role model.Role, activityID uuid.UUID, req model.RejectRequest) (*model.ActivityRef, error) {
	if !role.CanReview() {
		return nil, apperror.Unauthorized("reviewer capability required")
	}

	ref, err := s.activities.FindRefByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	updated, err := lifecycle.Reject(*ref, reviewerID, req.Notes, req.ExpectedVersion, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.activities.CommitTransition(ctx, updated, req.ExpectedVersion); err != nil {
		return nil, err
	}

	s.recompute(ctx, updated.StudentID)
	return &updated, nil
}

// scan resolves a reference token into a redacted activity snapshot. Unknown
// and guessed tokens are indistinguishable: both are a plain not-found.
func (s *VerificationService) scan(ctx context.Context, token string) (*model.ScanResponse, error) {
	ref, err := s.activities.FindRefByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	// A reference token exists only on verified rows. Anything else is a
	// corrupt record with no activity snapshot worth showing.
	if ref.Status != model.StatusVerified {
		return nil, apperror.CredentialInvalid(ref.ID.String())
	}

	valid := s.issuer.VerifyCredential(*ref)

	resp, err := s.activities.FindByID(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	resp.CredentialValid = &valid

	visibility, err := s.portfolios.Visibility(ctx, ref.StudentID)
	if err != nil {
		return nil, err
	}
	if visibility != model.VisibilityPublic {
		resp.StudentName = ""
	}

	return &model.ScanResponse{Activity: *resp, CredentialValid: valid}, nil
}

// respond fetches the full joined view of a just-committed transition. A
// failure here does not undo the decision, so fall back to the bare ref.
func (s *VerificationService) respond(ctx context.Context, ref *model.ActivityRef) *model.ActivityResponse {
	resp, err := s.activities.FindByID(ctx, ref.ID)
	if err != nil {
		log.Println("Warning: loading committed activity:", err)
		return &model.ActivityResponse{
			ID:                ref.ID,
			StudentID:         ref.StudentID,
			Status:            ref.Status,
			VerificationNotes: ref.VerificationNotes,
			AwardedPoints:     ref.AwardedPoints,
			Credential:        ref.Credential,
			Version:           ref.Version,
			CreatedAt:         ref.CreatedAt,
			UpdatedAt:         ref.UpdatedAt,
		}
	}
	if ref.Status == model.StatusVerified {
		valid := s.issuer.VerifyCredential(*ref)
		resp.CredentialValid = &valid
	}
	return resp
}

func (s *VerificationService) recompute(ctx context.Context, studentID uuid.UUID) {
	if _, err := s.aggregator.Recompute(ctx, studentID); err != nil {
		// The transition is committed; the portfolio refreshes on next read.
		log.Println("Warning: portfolio recompute failed:", err)
	}
}
