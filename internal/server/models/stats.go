package models

import "time"

// ActiveSubscription is the newest non-expired active subscription of a
// client, joined with its plan.
type ActiveSubscription struct {
	ID          string    `json:"id"`
	PlanName    string    `json:"planName"`
	DeviceLimit int       `json:"deviceLimit"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

// AdminStats is the dashboard view for admins.
type AdminStats struct {
	TotalUsers          int64   `json:"totalUsers"`
	ActiveSubscriptions int64   `json:"activeSubscriptions"`
	TotalRevenue        float64 `json:"totalRevenue"`
}

// ClientStats is the dashboard view for clients.
type ClientStats struct {
	Subscription   *ActiveSubscription `json:"subscription"`
	TotalPoints    int                 `json:"totalPoints"`
	TotalReferrals int                 `json:"totalReferrals"`
}
