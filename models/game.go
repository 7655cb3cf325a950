// models/game.go
package models

import (
	"time"
)

// GameInProgress is a live game session. Rows only ever leave this table by
// promotion into HistoricalGame or by explicit deletion.
type GameInProgress struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	FundName    string    `json:"fund_name" gorm:"not null"`
	TimeStarted time.Time `json:"time_started" gorm:"not null;index"`
	Geolocation *string   `json:"geolocation"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (GameInProgress) TableName() string {
	return "games_in_progress"
}

// HistoricalGame is the archived form of a session. Written exactly once at
// promotion; the only later mutation is the time_played backfill.
type HistoricalGame struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	FundName    string     `json:"fund_name" gorm:"not null"`
	TimeStarted time.Time  `json:"time_started" gorm:"not null;index"`
	TimeEnded   *time.Time `json:"time_ended"`
	Completed   bool       `json:"completed" gorm:"not null;default:false"`
	Geolocation *string    `json:"geolocation"`
	TimePlayed  *string    `json:"time_played"`

	// Leaderboard ranking column. NULL or non-positive rows never rank.
	TotalPnl *float64 `json:"total_pnl" gorm:"column:total_pnl;index"`

	// Public lookup token, present only when the game ended with a results
	// payload. The internal id is never exposed for shareable lookups.
	ShareableID *string `json:"shareable_id,omitempty" gorm:"uniqueIndex"`

	// Raw caller-supplied results JSON, preserved verbatim.
	ResultsData *string `json:"results_data,omitempty" gorm:"type:text"`

	// Metrics derived from the results payload at promotion time.
	FirmCash              *float64 `json:"firm_cash,omitempty"`
	GameDaysPlayed        *int     `json:"game_days_played,omitempty"`
	AnnualizedPerformance *float64 `json:"annualized_performance,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (HistoricalGame) TableName() string {
	return "historical_games"
}
