package models

// DashboardStats holds the aggregate counts shown on the admin dashboard.
type DashboardStats struct {
	TotalUsers          int64 `json:"total_users"`
	TotalListings       int64 `json:"total_listings"`
	ActiveListings      int64 `json:"active_listings"`
	TotalVehicles       int64 `json:"total_vehicles"`
	UnreadNotifications int64 `json:"unread_notifications"`
	PlateSearches24h    int64 `json:"plate_searches_24h"`
}
