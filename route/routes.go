package route

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/mohdfarhan01/ACADVault/app/credential"
	"github.com/mohdfarhan01/ACADVault/app/repo"
	"github.com/mohdfarhan01/ACADVault/app/service"
	"github.com/mohdfarhan01/ACADVault/app/signer"
	"github.com/mohdfarhan01/ACADVault/middleware"
)

func SetupRoutes(app *fiber.App, gormDB *gorm.DB, pgDB *sql.DB, mongoDB *mongo.Database, sgn *signer.Signer) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	activityRepo := repo.NewActivityRepo(pgDB, mongoDB)
	portfolioRepo := repo.NewPortfolioRepo(pgDB)
	userRepo := repo.NewUserRepo(gormDB)

	issuer := credential.NewIssuer(sgn, activityRepo)

	authService := service.NewAuthService(userRepo)
	portfolioService := service.NewPortfolioService(activityRepo, portfolioRepo, userRepo, issuer)
	activityService := service.NewActivityService(activityRepo, issuer, portfolioService)
	verificationService := service.NewVerificationService(activityRepo, portfolioRepo, issuer, portfolioService)

	// Public: QR scans and public portfolios need no authentication.
	v1.Post("/verification/scan", verificationService.Scan)
	v1.Get("/portfolio/public/:studentId", portfolioService.Public)

	auth := v1.Group("/auth")
	auth.Post("/login", authService.Login)

	protected := v1.Group("", middleware.AuthRequired())

	protected.Get("/auth/profile", authService.Profile)

	protected.Post("/activities", activityService.Create)
	protected.Get("/activities", activityService.List)
	protected.Get("/activities/my-activities", activityService.My)
	protected.Get("/activities/:id", activityService.Get)

	protected.Get("/verification/pending", verificationService.Pending)
	protected.Put("/verification/:id/verify", verificationService.Verify)
	protected.Put("/verification/:id/reject", verificationService.Reject)

	protected.Get("/portfolio/my-portfolio", portfolioService.My)
	protected.Put("/portfolio/my-portfolio", portfolioService.UpdateVisibility)
}
