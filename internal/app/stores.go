package app

import (
	"log/slog"

	"yeogiro/internal/config"
	"yeogiro/internal/services"
	"yeogiro/internal/store"
	"yeogiro/internal/store/emergencydb"
	"yeogiro/internal/store/mapdb"
	"yeogiro/internal/store/mongodb"
	"yeogiro/internal/store/pathdb"
	handlers "yeogiro/internal/transport/http"
)

// MapStore is the shelter store as the application uses it.
type MapStore interface {
	store.Handle
	handlers.ShelterStore
}

// DocumentStore is the tips and messages store as the application uses it.
type DocumentStore interface {
	store.Handle
	handlers.TipStore
	services.MessageStore
}

// PathStore is the evacuation path cache as the application uses it.
type PathStore interface {
	store.Handle
	handlers.PathStore
}

// EmergencyStore is the facility store as the application uses it.
type EmergencyStore interface {
	store.Handle
	handlers.FacilityStore
}

// Stores bundles the four backing stores. The application hands them to
// the lifecycle manager, which owns opening and closing them, and passes
// the same values to the route groups as access handles.
type Stores struct {
	Map       MapStore
	Document  DocumentStore
	Path      PathStore
	Emergency EmergencyStore
}

// NewStores builds the production stores from cfg. Nothing is opened.
func NewStores(cfg config.StoresConfig, logger *slog.Logger) Stores {
	return Stores{
		Map:       mapdb.New(cfg.Map.SeedFile, logger),
		Document:  mongodb.New(cfg.Mongo, logger),
		Path:      pathdb.New(cfg.Path, logger),
		Emergency: emergencydb.New(cfg.Emergency, logger),
	}
}

func (s Stores) handles() []store.Handle {
	return []store.Handle{s.Map, s.Document, s.Path, s.Emergency}
}
