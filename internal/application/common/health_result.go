package common

const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

type HealthResult struct {
	Status string `json:"status"`
	DB     string `json:"db"`
	Redis  string `json:"redis"`
	NATS   string `json:"nats"`
}

// Healthy reports whether the database is reachable; Redis and NATS are optional.
func (h *HealthResult) Healthy() bool {
	return h.DB == StatusUp
}
