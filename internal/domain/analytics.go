package domain

// ============================================================
// Analytics — summary cards, category breakdown, cash-flow trend
// ============================================================

// Summary is returned by GET /api/analytics/summary.
type Summary struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Savings  float64 `json:"savings"`
}

// CategoryTotal is one row of GET /api/analytics/categories.
type CategoryTotal struct {
	Category Category `json:"category"`
	Total    float64  `json:"total"`
	Count    int      `json:"count"`
}

// TrendPoint is one month of GET /api/analytics/trends.
type TrendPoint struct {
	Month    string  `json:"month"` // YYYY-MM
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// Dashboard bundles every analytics view for a single round trip.
type Dashboard struct {
	Summary    *Summary        `json:"summary"`
	Categories []CategoryTotal `json:"categories"`
	Trends     []TrendPoint    `json:"trends"`
}
