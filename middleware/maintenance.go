// middleware/maintenance.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Sweeper promotes stale in-progress games to historical storage.
type Sweeper interface {
	MoveOldGamesToHistorical() (int, error)
}

// MoveOldGamesMiddleware runs the stale-game sweep opportunistically on game
// read traffic. The sweep is best-effort: a failure is logged and the
// request proceeds untouched.
func MoveOldGamesMiddleware(sweeper Sweeper) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet && strings.HasPrefix(c.Path(), "/api/games") {
			if _, err := sweeper.MoveOldGamesToHistorical(); err != nil {
				log.Printf("⚠️  [MAINTENANCE] error moving old games: %v", err)
			}
		}
		return c.Next()
	}
}
