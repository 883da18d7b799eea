package domain

import "time"

// Path is a computed evacuation route cached by the path store.
type Path struct {
	ID              string    `json:"id"`
	Origin          Point     `json:"origin"`
	Destination     Point     `json:"destination"`
	Waypoints       []Point   `json:"waypoints"`
	DistanceMetres  float64   `json:"distance_m"`
	DurationSeconds float64   `json:"duration_s"`
	Source          string    `json:"source,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
