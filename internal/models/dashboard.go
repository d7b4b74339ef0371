package models

// DashboardStats is the monitoring overview served to the operations
// dashboard.
type DashboardStats struct {
	ActiveFields        int               `json:"active_fields"`
	TotalFields         int               `json:"total_fields"`
	MonitoredHectares   float64           `json:"monitored_hectares"`
	ActiveAlerts        int               `json:"active_alerts"`
	AlertsBySeverity    map[string]int    `json:"alerts_by_severity"`
	SnapshotsLast7Days  int               `json:"snapshots_last_7_days"`
	ClaimsByFraudRisk   map[FraudRisk]int `json:"claims_by_fraud_risk"`
	PropertiesVerified  int               `json:"properties_verified"`
	PendingManualReview int               `json:"pending_manual_review"`
}
