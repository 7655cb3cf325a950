package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"pod-shop-content-service/models"
	"pod-shop-content-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StaleGameAge is how long a session may sit in games_in_progress before the
// sweep promotes it as abandoned.
const StaleGameAge = time.Hour

type GameService struct {
	DB *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{DB: db}
}

type createGameRequest struct {
	FundName    string  `json:"fund_name"`
	Geolocation *string `json:"geolocation"`
}

type updateGameRequest struct {
	FundName    *string `json:"fund_name"`
	Geolocation *string `json:"geolocation"`
}

type endGameRequest struct {
	ResultsData string `json:"results_data"`
}

// historicalGameSummary is the lightweight list/detail view — shareable
// tokens and raw results never leak through the history listings.
type historicalGameSummary struct {
	ID          string     `json:"id"`
	FundName    string     `json:"fund_name"`
	TimeStarted time.Time  `json:"time_started"`
	TimeEnded   *time.Time `json:"time_ended"`
	Completed   bool       `json:"completed"`
	Geolocation *string    `json:"geolocation"`
	TimePlayed  *string    `json:"time_played"`
	TotalPnl    *float64   `json:"total_pnl"`
	CreatedAt   time.Time  `json:"created_at"`
}

type leaderboardEntry struct {
	FundName  string     `json:"fund_name"`
	TotalPnl  *float64   `json:"total_pnl"`
	TimeEnded *time.Time `json:"time_ended"`
	Completed bool       `json:"completed"`
}

func summarizeHistorical(g models.HistoricalGame) historicalGameSummary {
	return historicalGameSummary{
		ID:          g.ID,
		FundName:    g.FundName,
		TimeStarted: g.TimeStarted,
		TimeEnded:   g.TimeEnded,
		Completed:   g.Completed,
		Geolocation: g.Geolocation,
		TimePlayed:  g.TimePlayed,
		TotalPnl:    g.TotalPnl,
		CreatedAt:   g.CreatedAt,
	}
}

// CreateGameInProgress starts a new session.
func (s *GameService) CreateGameInProgress(c *fiber.Ctx) error {
	var req createGameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.FundName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "fund_name is required"})
	}

	game := models.GameInProgress{
		ID:          uuid.NewString(),
		FundName:    req.FundName,
		TimeStarted: time.Now().UTC(),
		Geolocation: req.Geolocation,
	}
	if err := s.DB.Create(&game).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create game"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      game.ID,
		"message": "Game created successfully",
	})
}

// ListGamesInProgress returns active sessions, newest first, paginated.
func (s *GameService) ListGamesInProgress(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	var total int64
	if err := s.DB.Model(&models.GameInProgress{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to count games"})
	}

	games := []models.GameInProgress{}
	if err := s.DB.Order("time_started DESC").Limit(limit).Offset(offset).Find(&games).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch games"})
	}

	return c.JSON(fiber.Map{
		"games":    games,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"has_more": int64(offset+limit) < total,
	})
}

// GetGameInProgress returns a single active session.
func (s *GameService) GetGameInProgress(c *fiber.Ctx) error {
	id := c.Params("id")

	var game models.GameInProgress
	if err := s.DB.First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(game)
}

// UpdateGameInProgress edits the mutable fields of an active session.
func (s *GameService) UpdateGameInProgress(c *fiber.Ctx) error {
	id := c.Params("id")

	var req updateGameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	updates := map[string]any{}
	if req.FundName != nil {
		updates["fund_name"] = *req.FundName
	}
	if req.Geolocation != nil {
		updates["geolocation"] = *req.Geolocation
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no fields to update"})
	}

	res := s.DB.Model(&models.GameInProgress{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update game"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
	}

	return c.JSON(fiber.Map{"message": "Game updated successfully"})
}

// DeleteGameInProgress removes an active session without archiving it.
func (s *GameService) DeleteGameInProgress(c *fiber.Ctx) error {
	id := c.Params("id")

	res := s.DB.Delete(&models.GameInProgress{}, "id = ?", id)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete game"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
	}

	return c.JSON(fiber.Map{"message": "Game deleted successfully"})
}

// EndGame promotes an active session into historical_games. Derived metrics
// are best-effort: a malformed results payload is stored verbatim but
// contributes no metrics.
func (s *GameService) EndGame(c *fiber.Ctx) error {
	id := c.Params("id")

	var game models.GameInProgress
	if err := s.DB.First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Also the outcome when a concurrent caller already promoted
			// this session: the archive row exists, nothing left to do.
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	completed := c.QueryBool("completed", false)

	var totalPnl *float64
	if v := c.Query("total_pnl"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "total_pnl must be a number"})
		}
		totalPnl = &f
	}

	var req endGameRequest
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req)
	}

	hist := models.HistoricalGame{
		ID:          game.ID,
		FundName:    game.FundName,
		TimeStarted: game.TimeStarted,
		Completed:   completed,
		Geolocation: game.Geolocation,
		TotalPnl:    totalPnl,
	}

	if req.ResultsData != "" {
		raw := req.ResultsData
		hist.ResultsData = &raw

		if parsed := parseResultsData(raw); parsed != nil {
			if v, ok := parsed["firmCash"].(float64); ok {
				hist.FirmCash = &v
			}
			startDate, _ := parsed["gameStartDate"].(string)
			endDate, _ := parsed["gameEndDate"].(string)
			hist.GameDaysPlayed = utils.CalculateGameDays(startDate, endDate)

			if nav, ok := parsed["investorEquity"].(float64); ok && nav != 0 && hist.GameDaysPlayed != nil {
				hist.AnnualizedPerformance = utils.CalculateAnnualizedPerformance(nav, *hist.GameDaysPlayed)
			}
		}

		// Results were supplied, so the game becomes publicly shareable.
		// Fixed-width token, no collision retry; the unique index turns the
		// astronomically unlikely clash into a rolled-back promotion.
		token := uuid.NewString()[:8]
		hist.ShareableID = &token
	}

	if err := s.promote(&hist); err != nil {
		log.Printf("failed to end game %s: %v", game.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to move game to historical"})
	}

	return c.JSON(fiber.Map{
		"message":      "Game moved to historical",
		"shareable_id": hist.ShareableID,
	})
}

// promote runs the one-way ACTIVE → ARCHIVED transition: insert the archive
// row, re-read the stored time_ended, backfill time_played, and only then
// delete the in-progress row. Everything rides one transaction, so a failure
// anywhere leaves the session active and retryable — never in both tables,
// never in neither.
func (s *GameService) promote(hist *models.HistoricalGame) error {
	now := time.Now().UTC()
	hist.TimeEnded = &now

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(hist).Error; err != nil {
			return err
		}

		// Re-read time_ended so the elapsed-time calculation feeds on the
		// persisted representation rather than the in-memory clock value,
		// keeping read and write formatting identical.
		var stored models.HistoricalGame
		if err := tx.Select("id", "time_started", "time_ended").First(&stored, "id = ?", hist.ID).Error; err != nil {
			return err
		}

		if stored.TimeEnded != nil {
			played := utils.CalculateTimePlayed(
				utils.FormatTimestamp(stored.TimeStarted),
				utils.FormatTimestamp(*stored.TimeEnded),
			)
			if played != nil {
				if err := tx.Model(&models.HistoricalGame{}).
					Where("id = ?", hist.ID).
					Update("time_played", played).Error; err != nil {
					return err
				}
			}
		}

		// Delete last. A concurrent promotion already removed the row?
		// Zero rows affected, still a success.
		return tx.Delete(&models.GameInProgress{}, "id = ?", hist.ID).Error
	})
}

// MoveOldGamesToHistorical promotes every session started more than
// StaleGameAge ago with completed=false and no results. Each candidate rides
// its own transaction so one bad row never aborts the pass. Returns the
// number actually moved.
func (s *GameService) MoveOldGamesToHistorical() (int, error) {
	cutoff := time.Now().UTC().Add(-StaleGameAge)

	var stale []models.GameInProgress
	if err := s.DB.Where("time_started < ?", cutoff).Find(&stale).Error; err != nil {
		return 0, err
	}

	moved := 0
	for _, game := range stale {
		hist := models.HistoricalGame{
			ID:          game.ID,
			FundName:    game.FundName,
			TimeStarted: game.TimeStarted,
			Completed:   false,
			Geolocation: game.Geolocation,
		}
		if err := s.promote(&hist); err != nil {
			log.Printf("[Maintenance] failed to move game %s to historical: %v", game.ID, err)
			continue
		}
		moved++
	}
	return moved, nil
}

// MoveOldGames is the manual sweep trigger.
func (s *GameService) MoveOldGames(c *fiber.Ctx) error {
	moved, err := s.MoveOldGamesToHistorical()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "maintenance sweep failed"})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Moved %d games to historical", moved),
		"moved":   moved,
	})
}

// ListHistoricalGames returns archived sessions, newest first, paginated.
func (s *GameService) ListHistoricalGames(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	var total int64
	if err := s.DB.Model(&models.HistoricalGame{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to count games"})
	}

	var games []models.HistoricalGame
	if err := s.DB.Order("time_started DESC").Limit(limit).Offset(offset).Find(&games).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch games"})
	}

	summaries := make([]historicalGameSummary, 0, len(games))
	for _, g := range games {
		summaries = append(summaries, summarizeHistorical(g))
	}

	return c.JSON(fiber.Map{
		"games":    summaries,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"has_more": int64(offset+limit) < total,
	})
}

// GetHistoricalGame returns a single archived session.
func (s *GameService) GetHistoricalGame(c *fiber.Ctx) error {
	id := c.Params("id")

	var game models.HistoricalGame
	if err := s.DB.First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(summarizeHistorical(game))
}

// DeleteHistoricalGame hard-deletes an archived session (admin only).
func (s *GameService) DeleteHistoricalGame(c *fiber.Ctx) error {
	id := c.Params("id")

	res := s.DB.Delete(&models.HistoricalGame{}, "id = ?", id)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete game"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
	}

	return c.JSON(fiber.Map{"message": "Game deleted successfully"})
}

// GetGameResults is the public result view, looked up by shareable token.
func (s *GameService) GetGameResults(c *fiber.Ctx) error {
	shareableID := c.Params("shareable_id")

	var game models.HistoricalGame
	if err := s.DB.First(&game, "shareable_id = ?", shareableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "results not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var resultsData map[string]any
	if game.ResultsData != nil {
		resultsData = parseResultsData(*game.ResultsData)
	}

	return c.JSON(fiber.Map{
		"id":                     game.ID,
		"fund_name":              game.FundName,
		"time_started":           game.TimeStarted,
		"time_ended":             game.TimeEnded,
		"completed":              game.Completed,
		"total_pnl":              game.TotalPnl,
		"time_played":            game.TimePlayed,
		"game_days_played":       game.GameDaysPlayed,
		"annualized_performance": game.AnnualizedPerformance,
		"results_data":           resultsData,
	})
}

// GetLeaderboard ranks archived games by total_pnl. Null and non-positive
// pnl never rank.
func (s *GameService) GetLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	ranked := s.DB.Model(&models.HistoricalGame{}).
		Where("total_pnl IS NOT NULL AND total_pnl > 0")

	var total int64
	if err := ranked.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to count leaderboard"})
	}

	var games []models.HistoricalGame
	if err := s.DB.
		Where("total_pnl IS NOT NULL AND total_pnl > 0").
		Order("total_pnl DESC").
		Limit(limit).Offset(offset).
		Find(&games).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}

	entries := make([]leaderboardEntry, 0, len(games))
	for _, g := range games {
		entries = append(entries, leaderboardEntry{
			FundName:  g.FundName,
			TotalPnl:  g.TotalPnl,
			TimeEnded: g.TimeEnded,
			Completed: g.Completed,
		})
	}

	return c.JSON(fiber.Map{
		"entries":  entries,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"has_more": int64(offset+limit) < total,
	})
}

// parseResultsData decodes the opaque results payload, returning nil for
// anything that isn't a JSON object.
func parseResultsData(raw string) map[string]any {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}
	return parsed
}
