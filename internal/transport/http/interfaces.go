package http

import (
	"context"
	"net/http"

	"yeogiro/internal/services"
	"yeogiro/pkg/contracts"
	api "yeogiro/pkg/contracts/api/v1"
	"yeogiro/pkg/contracts/domain"
)

// ShelterStore is the part of the map store used by the shelter group.
type ShelterStore interface {
	Shelter(ctx context.Context, id string) (domain.Shelter, error)
	NearestShelters(ctx context.Context, p domain.Point, limit int) ([]domain.ShelterDistance, error)
}

// PathStore is the part of the path store used by the path group.
type PathStore interface {
	SavePath(ctx context.Context, path domain.Path) (domain.Path, error)
	Path(ctx context.Context, id string) (domain.Path, error)
	FindPath(ctx context.Context, origin, destination domain.Point, toleranceMetres float64) (domain.Path, error)
}

// FacilityStore is the part of the emergency store used by the emergency group.
type FacilityStore interface {
	Facilities(ctx context.Context, category string) ([]domain.Facility, error)
	Facility(ctx context.Context, id string) (domain.Facility, error)
	NearbyFacilities(ctx context.Context, p domain.Point, category string, radiusMetres float64, limit int) ([]domain.FacilityDistance, error)
}

// TipStore is the part of the document store used by the tips group.
type TipStore interface {
	Tips(ctx context.Context, category string) ([]domain.Tip, error)
	Tip(ctx context.Context, id string) (domain.Tip, error)
}

// MessageService publishes and lists emergency messages.
type MessageService interface {
	Publish(ctx context.Context, req api.PostMessageRequest) (domain.Message, error)
	Recent(ctx context.Context, region string, limit int) ([]domain.Message, error)
}

// Subscriber upgrades a request to a websocket stream of new messages.
type Subscriber interface {
	Subscribe(w http.ResponseWriter, r *http.Request) error
}

// HealthReporter answers the health and readiness probes.
type HealthReporter interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) (services.ReadinessStatus, bool)
	Version() contracts.VersionInfo
}
