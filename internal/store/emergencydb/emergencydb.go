// Package emergencydb is the emergency store: hospitals, pharmacies and
// other facilities kept in SQLite and reloaded from a spreadsheet at startup.
package emergencydb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"yeogiro/internal/config"
	"yeogiro/internal/store"
	"yeogiro/pkg/contracts/domain"
)

// Nearby query bounds.
const (
	DefaultRadiusMetres = 2000
	DefaultNearbyLimit  = 20
	MaxNearbyLimit      = 100
)

const insertBatchSize = 200

type facilityRecord struct {
	ID       string  `gorm:"primaryKey"`
	Name     string  `gorm:"not null"`
	Category string  `gorm:"index;not null"`
	Address  string
	Phone    string
	Lat      float64 `gorm:"index:idx_facility_location"`
	Lng      float64 `gorm:"index:idx_facility_location"`
}

func (facilityRecord) TableName() string { return "facilities" }

func newFacilityRecord(f domain.Facility) facilityRecord {
	return facilityRecord{
		ID:       f.ID,
		Name:     f.Name,
		Category: f.Category,
		Address:  f.Address,
		Phone:    f.Phone,
		Lat:      f.Location.Lat,
		Lng:      f.Location.Lng,
	}
}

func (r facilityRecord) toDomain() domain.Facility {
	return domain.Facility{
		ID:       r.ID,
		Name:     r.Name,
		Category: r.Category,
		Address:  r.Address,
		Phone:    r.Phone,
		Location: domain.Point{Lat: r.Lat, Lng: r.Lng},
	}
}

// Store is the SQLite-backed facility store.
type Store struct {
	store.Lifecycle

	cfg    config.EmergencyStoreConfig
	logger *slog.Logger
	db     *gorm.DB
}

// New creates an unopened emergency store.
func New(cfg config.EmergencyStoreConfig, logger *slog.Logger) *Store {
	return &Store{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "emergencydb")),
	}
}

// Kind implements store.Handle.
func (s *Store) Kind() store.Kind { return store.EmergencyStore }

// Open opens the database, migrates the schema and, when a seed workbook is
// configured, replaces the facility table with its rows.
func (s *Store) Open(ctx context.Context) error {
	return s.Lifecycle.Open(func() error {
		var seed []domain.Facility
		if s.cfg.SeedFile != "" {
			var err error
			if seed, err = ReadFacilities(s.cfg.SeedFile, s.cfg.Sheet); err != nil {
				return fmt.Errorf("load %s: %w", s.cfg.SeedFile, err)
			}
		}

		if err := os.MkdirAll(filepath.Dir(s.cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn := s.cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := s.prepare(ctx, db, seed); err != nil {
			_ = closeDB(db)
			return err
		}
		s.db = db

		s.logger.InfoContext(ctx, "emergency store opened",
			slog.String("db_path", s.cfg.DBPath),
			slog.Int("seeded", len(seed)))
		return nil
	})
}

func (s *Store) prepare(ctx context.Context, db *gorm.DB, seed []domain.Facility) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&facilityRecord{}); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}
	if s.cfg.SeedFile == "" {
		return nil
	}

	records := make([]facilityRecord, 0, len(seed))
	for _, f := range seed {
		records = append(records, newFacilityRecord(f))
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&facilityRecord{}).Error; err != nil {
			return fmt.Errorf("clear facilities: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert facilities: %w", err)
		}
		return nil
	})
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Close closes the underlying database.
func (s *Store) Close(_ context.Context) error {
	return s.Lifecycle.Close(func() error {
		if s.db == nil {
			return nil
		}
		return closeDB(s.db)
	})
}

// Facilities lists facilities ordered by category then id, optionally for
// one category.
func (s *Store) Facilities(ctx context.Context, category string) ([]domain.Facility, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Order("category").Order("id")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var records []facilityRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return toDomain(records), nil
}

// Facility returns the facility with id.
func (s *Store) Facility(ctx context.Context, id string) (domain.Facility, error) {
	if err := s.Check(); err != nil {
		return domain.Facility{}, err
	}

	var rec facilityRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Facility{}, fmt.Errorf("facility %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return domain.Facility{}, fmt.Errorf("load facility %s: %w", id, err)
	}
	return rec.toDomain(), nil
}

// NearbyFacilities returns facilities within radiusMetres of p, nearest
// first. Zero radius and limit select the defaults.
func (s *Store) NearbyFacilities(ctx context.Context, p domain.Point, category string, radiusMetres float64, limit int) ([]domain.FacilityDistance, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	if radiusMetres <= 0 {
		radiusMetres = DefaultRadiusMetres
	}
	switch {
	case limit <= 0:
		limit = DefaultNearbyLimit
	case limit > MaxNearbyLimit:
		limit = MaxNearbyLimit
	}

	box := domain.BoundingBox(p, radiusMetres)
	q := s.db.WithContext(ctx).
		Where("lat BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("lng BETWEEN ? AND ?", box.MinLng, box.MaxLng)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var records []facilityRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query nearby facilities: %w", err)
	}

	ranked := make([]domain.FacilityDistance, 0, len(records))
	for _, r := range records {
		f := r.toDomain()
		d := domain.DistanceMetres(p, f.Location)
		if d > radiusMetres {
			continue
		}
		ranked = append(ranked, domain.FacilityDistance{Facility: f, DistanceMetres: d})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DistanceMetres == ranked[j].DistanceMetres {
			return ranked[i].ID < ranked[j].ID
		}
		return ranked[i].DistanceMetres < ranked[j].DistanceMetres
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func toDomain(records []facilityRecord) []domain.Facility {
	out := make([]domain.Facility, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDomain())
	}
	return out
}
