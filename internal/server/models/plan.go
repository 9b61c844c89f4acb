package models

// Plan is a purchasable subscription plan shown on the public catalog.
type Plan struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"durationDays"`
	DeviceLimit  int     `json:"deviceLimit"`
	SortOrder    int     `json:"sortOrder"`
}
