// Package mapdb is the map store: the shelter data set, loaded from a JSON
// seed file into an in-memory badger database at startup.
package mapdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"

	"yeogiro/internal/store"
	"yeogiro/pkg/contracts/domain"
)

const shelterPrefix = "shelter/"

// MaxNearest caps NearestShelters results.
const MaxNearest = 100

func shelterKey(id string) []byte {
	return []byte(shelterPrefix + id)
}

// Store holds the shelter data set.
type Store struct {
	store.Lifecycle

	seedFile string
	logger   *slog.Logger
	validate *validator.Validate
	db       *badger.DB
}

// New creates an unopened map store reading seedFile.
func New(seedFile string, logger *slog.Logger) *Store {
	return &Store{
		seedFile: seedFile,
		logger:   logger.With(slog.String("component", "mapdb")),
		validate: validator.New(),
	}
}

// Kind implements store.Handle.
func (s *Store) Kind() store.Kind { return store.MapStore }

// Open loads the seed file. A missing or malformed file, an invalid shelter
// or a duplicated id fails the load.
func (s *Store) Open(ctx context.Context) error {
	return s.Lifecycle.Open(func() error {
		shelters, err := s.readSeed()
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		db, err := badger.Open(badger.DefaultOptions("").
			WithInMemory(true).
			WithMemTableSize(8 << 20).
			WithLogger(nil))
		if err != nil {
			return fmt.Errorf("open in-memory badger: %w", err)
		}
		if err := load(db, shelters); err != nil {
			_ = db.Close()
			return err
		}
		s.db = db

		s.logger.InfoContext(ctx, "shelter map loaded",
			slog.String("seed_file", s.seedFile),
			slog.Int("shelters", len(shelters)))
		return nil
	})
}

func (s *Store) readSeed() ([]domain.Shelter, error) {
	raw, err := os.ReadFile(s.seedFile)
	if err != nil {
		return nil, fmt.Errorf("read shelter seed: %w", err)
	}

	var shelters []domain.Shelter
	if err := json.Unmarshal(raw, &shelters); err != nil {
		return nil, fmt.Errorf("decode shelter seed %s: %w", s.seedFile, err)
	}

	seen := make(map[string]struct{}, len(shelters))
	for i, sh := range shelters {
		if err := s.validate.Struct(sh); err != nil {
			return nil, fmt.Errorf("shelter #%d (%q): %w", i, sh.ID, err)
		}
		if _, dup := seen[sh.ID]; dup {
			return nil, fmt.Errorf("shelter #%d: duplicate id %q", i, sh.ID)
		}
		seen[sh.ID] = struct{}{}
	}
	return shelters, nil
}

func load(db *badger.DB, shelters []domain.Shelter) error {
	wb := db.NewWriteBatch()
	defer wb.Cancel()

	for _, sh := range shelters {
		val, err := json.Marshal(sh)
		if err != nil {
			return err
		}
		if err := wb.Set(shelterKey(sh.ID), val); err != nil {
			return fmt.Errorf("stage shelter %s: %w", sh.ID, err)
		}
	}
	return wb.Flush()
}

// Close drops the in-memory data set.
func (s *Store) Close(_ context.Context) error {
	return s.Lifecycle.Close(func() error {
		if s.db == nil {
			return nil
		}
		return s.db.Close()
	})
}

// Shelter returns the shelter with id.
func (s *Store) Shelter(ctx context.Context, id string) (domain.Shelter, error) {
	var sh domain.Shelter
	if err := s.Check(); err != nil {
		return sh, err
	}
	if err := ctx.Err(); err != nil {
		return sh, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(shelterKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("shelter %s: %w", id, store.ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sh)
		})
	})
	return sh, err
}

// NearestShelters returns up to limit shelters ordered by distance from p.
func (s *Store) NearestShelters(ctx context.Context, p domain.Point, limit int) ([]domain.ShelterDistance, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxNearest {
		limit = MaxNearest
	}

	var ranked []domain.ShelterDistance
	err := s.scan(ctx, func(sh domain.Shelter) {
		ranked = append(ranked, domain.ShelterDistance{
			Shelter:        sh,
			DistanceMetres: domain.DistanceMetres(p, sh.Location),
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceMetres < ranked[j].DistanceMetres
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// ShelterCount returns the number of loaded shelters.
func (s *Store) ShelterCount(ctx context.Context) (int, error) {
	if err := s.Check(); err != nil {
		return 0, err
	}
	n := 0
	err := s.scan(ctx, func(domain.Shelter) { n++ })
	return n, err
}

func (s *Store) scan(ctx context.Context, fn func(domain.Shelter)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(shelterPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var sh domain.Shelter
				if err := json.Unmarshal(val, &sh); err != nil {
					return err
				}
				fn(sh)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
