// handlers/content_routes.go
package handlers

import (
	"pod-shop-content-service/middleware"
	"pod-shop-content-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupContentRoutes(app *fiber.App, content *services.ContentService) {
	api := app.Group("/api")

	// 📨 Unified messages — reads are public, mutations need the admin token
	api.Get("/messages", content.GetMessages)
	api.Get("/messages/:id", content.GetMessage)

	adminToken := middleware.AdminAuthMiddleware()
	api.Post("/messages", adminToken, content.Add(services.Messages))
	api.Put("/messages/:id", adminToken, content.Update(services.Messages))
	api.Delete("/messages/:id", adminToken, content.SoftDelete(services.Messages))

	// 🔐 Admin content collections — every route behind the token, reads too
	admin := api.Group("/admin", adminToken)

	admin.Get("/flavor", content.List(services.FlavorText))
	admin.Post("/flavor", content.Add(services.FlavorText))
	admin.Put("/flavor/:id", content.Update(services.FlavorText))
	admin.Delete("/flavor/:id", content.SoftDelete(services.FlavorText))

	admin.Get("/news", content.List(services.NewsTemplates))
	admin.Post("/news", content.Add(services.NewsTemplates))
	admin.Put("/news/:id", content.Update(services.NewsTemplates))
	admin.Delete("/news/:id", content.SoftDelete(services.NewsTemplates))

	admin.Get("/recruitment/candidates", content.List(services.RecruitmentCandidates))
	admin.Post("/recruitment/candidates", content.Add(services.RecruitmentCandidates))
	admin.Put("/recruitment/candidates/:id", content.Update(services.RecruitmentCandidates))
	admin.Delete("/recruitment/candidates/:id", content.SoftDelete(services.RecruitmentCandidates))

	// Legacy single-document recruitment config
	admin.Get("/recruitment", content.GetRecruitmentDoc)
	admin.Put("/recruitment", content.UpdateRecruitmentDoc)

	// 🕰️ Legacy client reads — public, with hardcoded fallbacks
	api.Get("/content/flavor", content.GetLegacyFlavor)
	api.Get("/content/news", content.GetLegacyNews)
	api.Get("/content/recruitment", content.GetLegacyRecruitment)
}
