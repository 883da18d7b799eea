package domain

import "time"

// Tip is a safety guideline shown by category (earthquake, fire, flood, ...).
type Tip struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Steps     []string  `json:"steps,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Message is an emergency broadcast message for a region.
type Message struct {
	ID        string    `json:"id"`
	Region    string    `json:"region"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Severity  string    `json:"severity"`
	Sender    string    `json:"sender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
