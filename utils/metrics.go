// utils/metrics.go
package utils

import (
	"fmt"
	"math"
	"time"
)

// StartingNav is every fund's opening net asset value.
const StartingNav = 100_000_000.0

// TradingDaysPerYear is the annualization basis.
const TradingDaysPerYear = 252.0

const gameDateLayout = "2006-01-02"

// Accepted textual timestamp encodings: RFC3339-style with an explicit
// zone, and the storage engine's space-separated local form, with or
// without fractional seconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// CalculateGameDays returns the inclusive number of calendar days between
// two YYYY-MM-DD game dates, floored at 1. Missing or unparseable dates
// yield nil.
func CalculateGameDays(gameStartDate, gameEndDate string) *int {
	if gameStartDate == "" || gameEndDate == "" {
		return nil
	}
	start, err := time.Parse(gameDateLayout, gameStartDate)
	if err != nil {
		return nil
	}
	end, err := time.Parse(gameDateLayout, gameEndDate)
	if err != nil {
		return nil
	}

	days := int(end.Sub(start).Hours()/24) + 1 // include both endpoints
	if days < 1 {
		days = 1
	}
	return &days
}

// CalculateAnnualizedPerformance computes
// ((finishingNav / StartingNav) ^ (252 / gameDays)) - 1.
// Annualization is best-effort: non-positive inputs and numeric domain
// errors yield nil rather than an error.
func CalculateAnnualizedPerformance(finishingNav float64, gameDays int) *float64 {
	if gameDays <= 0 {
		return nil
	}
	if finishingNav <= 0 {
		return nil
	}

	returnRatio := finishingNav / StartingNav
	annualized := math.Pow(returnRatio, TradingDaysPerYear/float64(gameDays)) - 1.0
	if math.IsNaN(annualized) || math.IsInf(annualized, 0) {
		return nil
	}
	return &annualized
}

// CalculateTimePlayed formats the elapsed time between two stored
// timestamps as "5m 30s" (or "42s" under a minute). Both inputs may use
// either accepted encoding. A missing end timestamp or a negative elapsed
// span (clock skew, malformed input) yields nil.
func CalculateTimePlayed(timeStarted, timeEnded string) *string {
	if timeEnded == "" {
		return nil
	}

	start, err := parseTimestamp(timeStarted)
	if err != nil {
		return nil
	}
	end, err := parseTimestamp(timeEnded)
	if err != nil {
		return nil
	}

	totalSeconds := int(end.Sub(start).Seconds())
	if totalSeconds < 0 {
		return nil
	}

	minutes := totalSeconds / 60
	seconds := totalSeconds % 60

	var played string
	if minutes > 0 {
		played = fmt.Sprintf("%dm %ds", minutes, seconds)
	} else {
		played = fmt.Sprintf("%ds", seconds)
	}
	return &played
}

// FormatTimestamp renders a stored timestamp in the canonical space-
// separated UTC form fed to CalculateTimePlayed. Promotion formats both
// endpoints through this single path so read and write sides always agree.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
