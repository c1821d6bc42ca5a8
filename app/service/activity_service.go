package service

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mohdfarhan01/ACADVault/app/apperror"
	"github.com/mohdfarhan01/ACADVault/app/credential"
	"github.com/mohdfarhan01/ACADVault/app/model"
	"github.com/mohdfarhan01/ACADVault/app/repo"
	"github.com/mohdfarhan01/ACADVault/helper"
)

// ActivityService covers submission and the read paths. Activities enter
// the system pending and are immutable afterwards; there is no update or
// delete, a correction means a fresh submission.
type ActivityService struct {
	activities repo.ActivityRepository
	issuer     *credential.Issuer
	aggregator Aggregator
}

func NewActivityService(activities repo.ActivityRepository, issuer *credential.Issuer, aggregator Aggregator) *ActivityService {
	return &ActivityService{
		activities: activities,
		issuer:     issuer,
		aggregator: aggregator,
	}
}

// /api/v1/activities (POST)
func (s *ActivityService) Create(c *fiber.Ctx) error {
	studentID, role := actor(c)
	if !role.CanSubmit() {
		return writeError(c, apperror.Unauthorized("students only"))
	}

	var req model.CreateActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: "Invalid input"})
	}
	if err := helper.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: helper.FormatValidationErrors(err)})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.activities.Create(ctx, studentID, req)
	if err != nil {
		return writeError(c, err)
	}

	if _, err := s.aggregator.Recompute(ctx, studentID); err != nil {
		log.Println("Warning: portfolio recompute failed:", err)
	}

	return c.Status(fiber.StatusCreated).JSON(model.SuccessResponse[*model.ActivityResponse]{Success: true, Data: res})
}

// /api/v1/activities
func (s *ActivityService) List(c *fiber.Ctx) error {
	userID, role := actor(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	var data []model.ActivityResponse
	var err error
	switch {
	case role.CanSubmit():
		data, err = s.activities.FindByStudent(ctx, userID, false)
	case role.CanReview():
		data, err = s.activities.FindPending(ctx)
	default:
		return writeError(c, apperror.Unauthorized("role cannot list activities"))
	}
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(model.SuccessResponse[[]model.ActivityResponse]{Success: true, Data: data})
}

// /api/v1/activities/my-activities
func (s *ActivityService) My(c *fiber.Ctx) error {
	userID, role := actor(c)
	if !role.CanSubmit() {
		return writeError(c, apperror.Unauthorized("students only"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	data, err := s.activities.FindByStudent(ctx, userID, false)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(model.SuccessResponse[[]model.ActivityResponse]{Success: true, Data: data})
}

// /api/v1/activities/:id
func (s *ActivityService) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: "Invalid ActivityId"})
	}

	userID, role := actor(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	ref, err := s.activities.FindRefByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if ref.StudentID != userID && !role.CanReview() {
		return writeError(c, apperror.Unauthorized("not your activity"))
	}

	resp, err := s.activities.FindByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if ref.Status == model.StatusVerified {
		valid := s.issuer.VerifyCredential(*ref)
		resp.CredentialValid = &valid
	}

	return c.JSON(model.SuccessResponse[*model.ActivityResponse]{Success: true, Data: resp})
}
