package model

import "time"

// Patch severity constants.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Patch is a vendor patch jobs deploy to assets.
type Patch struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Vendor      string     `json:"vendor"`
	Product     string     `json:"product"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Asset is a managed host patch jobs target.
type Asset struct {
	ID        string    `json:"id"`
	Hostname  string    `json:"hostname"`
	IPAddress *string   `json:"ip_address,omitempty"`
	OS        string    `json:"os"`
	Group     *string   `json:"group,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User identifies an operator for audit fields and joins.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
