// Package api contains the request and response bodies of the yeogiro HTTP API.
package api

import (
	"yeogiro/pkg/contracts/domain"
)

// FindPathRequest asks for a cached evacuation path between two points.
type FindPathRequest struct {
	Origin      domain.Point `json:"origin"`
	Destination domain.Point `json:"destination"`
	// ToleranceMetres bounds how far cached endpoints may be from the
	// requested ones. Zero selects the server default.
	ToleranceMetres float64 `json:"tolerance_m" validate:"gte=0,lte=5000"`
}

// SavePathRequest stores a computed evacuation path.
type SavePathRequest struct {
	Origin          domain.Point   `json:"origin"`
	Destination     domain.Point   `json:"destination"`
	Waypoints       []domain.Point `json:"waypoints" validate:"required,min=2,dive"`
	DistanceMetres  float64        `json:"distance_m" validate:"gte=0"`
	DurationSeconds float64        `json:"duration_s" validate:"gte=0"`
	Source          string         `json:"source" validate:"max=64"`
}

// PostMessageRequest publishes an emergency message.
type PostMessageRequest struct {
	Region   string `json:"region" validate:"required,max=64"`
	Title    string `json:"title" validate:"required,max=200"`
	Body     string `json:"body" validate:"required,max=4000"`
	Severity string `json:"severity" validate:"omitempty,oneof=info warning critical"`
	Sender   string `json:"sender" validate:"max=64"`
}
