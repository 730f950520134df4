package core

// MonthSummary holds the headline figures of one month.
type MonthSummary struct {
	Year               int     `json:"year"`
	Month              int     `json:"month"` // 1-12
	Total              Money   `json:"total"`
	Count              int     `json:"count"`
	AverageTransaction Money   `json:"average_transaction"`
	DailyAverage       Money   `json:"daily_average"`
	PreviousTotal      Money   `json:"previous_total"`
	PercentChange      float64 `json:"percent_change"` // vs. previous month, 0 when it had no spend
}
