// handlers/game_routes.go
package handlers

import (
	"pod-shop-content-service/middleware"
	"pod-shop-content-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, gameService *services.GameService) {
	api := app.Group("/api")

	// 🎮 Game lifecycle — consumed by the game client, no auth
	api.Post("/games/in-progress", gameService.CreateGameInProgress)
	api.Get("/games/in-progress", gameService.ListGamesInProgress)
	api.Get("/games/in-progress/:id", gameService.GetGameInProgress)
	api.Put("/games/in-progress/:id", gameService.UpdateGameInProgress)
	api.Delete("/games/in-progress/:id", gameService.DeleteGameInProgress)
	api.Post("/games/in-progress/:id/end", gameService.EndGame)

	api.Get("/games/historical", gameService.ListHistoricalGames)
	api.Get("/games/historical/:id", gameService.GetHistoricalGame)
	api.Get("/games/results/:shareable_id", gameService.GetGameResults)

	api.Get("/leaderboard", gameService.GetLeaderboard)
	api.Post("/games/maintenance/move-old-games", gameService.MoveOldGames)

	// 🔐 Administrative hard delete of archived games
	api.Delete("/games/historical/:id", middleware.AdminAuthMiddleware(), gameService.DeleteHistoricalGame)
}
