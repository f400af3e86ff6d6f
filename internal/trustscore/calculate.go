package trustscore

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zepzep/zepzep-backend/pkg/enums"
)

const (
	maxFrequencyScore = 40.0
	pointsPerOrder    = 4.0
	maxMonetaryScore  = 30.0
	monetaryDivisor   = 100.0
	maxRecencyScore   = 30.0
	recencyDivisor    = 10.0
	maxScore          = 100.0

	day = 24 * time.Hour
)

// DeliveredOrder is the slice of order history the score depends on.
type DeliveredOrder struct {
	TotalAmount decimal.Decimal `gorm:"column:total_amount"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
}

// Stats aggregates a customer's delivered orders.
type Stats struct {
	OrderCount        int
	LifetimeValue     decimal.Decimal
	AvgDaysSinceOrder float64
}

// Breakdown holds the unrounded components.
type Breakdown struct {
	FrequencyScore float64 `json:"frequency_score"`
	MonetaryScore  float64 `json:"monetary_score"`
	RecencyScore   float64 `json:"recency_score"`
}

// Result is a computed trust score. Score is rounded half up; Level is
// derived from the unrounded sum.
type Result struct {
	Score     float64          `json:"trust_score"`
	Breakdown Breakdown        `json:"breakdown"`
	Level     enums.TrustLevel `json:"level"`
}

// Summarize folds delivered orders into Stats. Days since an order are whole
// days, and orders stamped in the future count as zero days old.
func Summarize(orders []DeliveredOrder, now time.Time) Stats {
	stats := Stats{LifetimeValue: decimal.Zero}
	if len(orders) == 0 {
		return stats
	}
	var totalDays int64
	for _, order := range orders {
		stats.LifetimeValue = stats.LifetimeValue.Add(order.TotalAmount)
		if age := now.Sub(order.CreatedAt); age > 0 {
			totalDays += int64(age / day)
		}
	}
	stats.OrderCount = len(orders)
	stats.AvgDaysSinceOrder = float64(totalDays) / float64(len(orders))
	return stats
}

// Calculate scores a customer's delivered orders as of now.
func Calculate(orders []DeliveredOrder, now time.Time) Result {
	return Score(Summarize(orders, now))
}

// Score applies the weighting formula to stats.
func Score(stats Stats) Result {
	var b Breakdown
	b.FrequencyScore = math.Min(float64(stats.OrderCount)*pointsPerOrder, maxFrequencyScore)

	value, _ := stats.LifetimeValue.Float64()
	b.MonetaryScore = math.Min(value/monetaryDivisor, maxMonetaryScore)

	if stats.OrderCount >= 1 {
		b.RecencyScore = math.Max(maxRecencyScore-stats.AvgDaysSinceOrder/recencyDivisor, 0)
	}

	score := b.FrequencyScore + b.MonetaryScore + b.RecencyScore
	score = math.Max(0, math.Min(score, maxScore))

	return Result{
		Score:     math.Floor(score + 0.5),
		Breakdown: b,
		Level:     enums.TrustLevelFor(score),
	}
}
