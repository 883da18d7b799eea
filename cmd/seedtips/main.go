// Command seedtips loads safety tips from a JSON file into the document
// store, replacing tips with the same id.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"yeogiro/internal/config"
	"yeogiro/internal/infrastructure"
	"yeogiro/internal/store/mongodb"
	"yeogiro/pkg/contracts/domain"
)

type tipRecord struct {
	ID       string   `json:"id" validate:"required"`
	Category string   `json:"category" validate:"required"`
	Title    string   `json:"title" validate:"required"`
	Body     string   `json:"body"`
	Steps    []string `json:"steps"`
}

func main() {
	file := flag.String("file", "data/tips.json", "JSON file holding an array of tips")
	timeout := flag.Duration("timeout", time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}

	if err := run(*file, *timeout, cfg.Stores.Mongo, logger); err != nil {
		logger.Error("Seeding tips failed", slog.String("file", *file), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(file string, timeout time.Duration, cfg config.MongoStoreConfig, logger *slog.Logger) error {
	tips, err := readTips(file, time.Now().UTC())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s := mongodb.New(cfg, logger)
	if err := s.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Closing document store failed", slog.String("error", err.Error()))
		}
	}()

	if err := s.UpsertTips(ctx, tips); err != nil {
		return err
	}
	logger.Info("Tips seeded", slog.String("file", file), slog.Int("tips", len(tips)))
	return nil
}

// readTips parses and validates the tip file. Categories are lowercased and
// every tip is stamped with now.
func readTips(path string, now time.Time) ([]domain.Tip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []tipRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	v := validator.New()
	seen := make(map[string]int, len(records))
	tips := make([]domain.Tip, 0, len(records))
	for i, rec := range records {
		if err := v.Struct(rec); err != nil {
			return nil, fmt.Errorf("tip %d: %w", i, err)
		}
		if first, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("tip %d: duplicate id %q (first at %d)", i, rec.ID, first)
		}
		seen[rec.ID] = i
		tips = append(tips, domain.Tip{
			ID:        rec.ID,
			Category:  strings.ToLower(strings.TrimSpace(rec.Category)),
			Title:     rec.Title,
			Body:      rec.Body,
			Steps:     rec.Steps,
			UpdatedAt: now,
		})
	}
	return tips, nil
}
