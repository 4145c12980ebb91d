package domain

// Festival categories used by the calendar.
const (
	CategoryFestival        = "Festival"
	CategoryCommercial      = "Commercial"
	CategorySalePeriod      = "Sale Period"
	CategoryNationalHoliday = "National Holiday"
	CategoryPublicHoliday   = "Public Holiday"
	CategoryReligious       = "Religious"
)

// Festival is an upcoming calendar event with merchandising suggestions.
// It is read-only for the dashboard.
type Festival struct {
	Name            string          `json:"name"`
	Date            string          `json:"date"` // YYYY-MM-DD
	Category        string          `json:"category"`
	DaysUntil       int             `json:"days_until"`
	IsToday         bool            `json:"is_today"`
	Notification    string          `json:"notification,omitempty"`
	Recommendations Recommendations `json:"recommendations"`
}

// Recommendations groups the suggestions shown for a festival.
type Recommendations struct {
	StockUpdates        []string `json:"stock_updates"`
	DiscountSuggestions []string `json:"discount_suggestions"`
	MarketingTips       []string `json:"marketing_tips"`
}
