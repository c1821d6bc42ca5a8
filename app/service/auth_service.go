package service

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mohdfarhan01/ACADVault/app/model"
	"github.com/mohdfarhan01/ACADVault/app/repo"
	"github.com/mohdfarhan01/ACADVault/helper"
)

// AuthService is the identity boundary: it turns credentials into a signed
// {id, role} token that the rest of the engine trusts as given.
type AuthService struct {
	users repo.UserRepository
}

func NewAuthService(users repo.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// /api/v1/auth/login
func (s *AuthService) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: "Invalid input"})
	}
	if err := helper.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Success: false, Message: helper.FormatValidationErrors(err)})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(model.ErrorResponse{Success: false, Message: "Invalid credentials"})
	}

	if !helper.CheckPasswordHash(req.Password, user.PasswordHash) {
		return c.Status(fiber.StatusUnauthorized).JSON(model.ErrorResponse{Success: false, Message: "Invalid credentials"})
	}

	token, err := helper.GenerateToken(*user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(model.ErrorResponse{Success: false, Message: "Failed to generate token"})
	}

	return c.JSON(model.SuccessResponse[model.LoginResponse]{
		Success: true,
		Message: "Login successful",
		Data: model.LoginResponse{
			User: model.UserResponse{
				ID:       user.ID,
				FullName: user.FullName,
				Email:    user.Email,
				Role:     user.Role,
			},
			Token: token,
		},
	})
}

// /api/v1/auth/profile
func (s *AuthService) Profile(c *fiber.Ctx) error {
	userID, _ := actor(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(model.SuccessResponse[model.UserResponse]{
		Success: true,
		Data: model.UserResponse{
			ID:       user.ID,
			FullName: user.FullName,
			Email:    user.Email,
			Role:     user.Role,
		},
	})
}
