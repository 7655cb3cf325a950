package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls int
	err   error
}

func (f *fakeSweeper) MoveOldGamesToHistorical() (int, error) {
	f.calls++
	return 0, f.err
}

func newSweepApp(sweeper Sweeper) *fiber.App {
	app := fiber.New()
	app.Use(MoveOldGamesMiddleware(sweeper))
	app.Get("/api/games/in-progress", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Post("/api/games/in-progress", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/api/messages", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestSweep_FiresOnGameReads(t *testing.T) {
	sweeper := &fakeSweeper{}
	app := newSweepApp(sweeper)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/games/in-progress", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, sweeper.calls)
}

func TestSweep_SkipsWritesAndOtherPaths(t *testing.T) {
	sweeper := &fakeSweeper{}
	app := newSweepApp(sweeper)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/games/in-progress", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/messages", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, 0, sweeper.calls)
}

func TestSweep_FailureNeverFailsTheRequest(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("db down")}
	app := newSweepApp(sweeper)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/games/in-progress", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, sweeper.calls)
}
