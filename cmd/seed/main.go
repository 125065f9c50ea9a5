package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bookingcore/internal/config"
	"bookingcore/internal/db"
	"bookingcore/internal/logging"
	"bookingcore/internal/model"
	"bookingcore/internal/repository"
	"bookingcore/internal/service"
)

const fetchTimeout = 30 * time.Second

func main() {
	source := flag.String("source", os.Getenv("PROPERTY_SEED_SOURCE"), "JSON file path or http(s) URL of the property export")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.IsProduction())

	if *source == "" {
		logger.Fatal("no seed source: pass -source or set PROPERTY_SEED_SOURCE")
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}

	// Run migrations to ensure schema is up to date
	if err := gormDB.AutoMigrate(&model.Property{}); err != nil {
		logger.WithError(err).Fatal("failed to run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	logger.WithField("source", *source).Info("loading properties")
	seeds, err := loadSeeds(ctx, *source)
	if err != nil {
		logger.WithError(err).Fatal("failed to load properties")
	}

	seeder := service.NewPropertySeeder(repository.NewStore(gormDB), logger)
	result, err := seeder.Seed(context.Background(), seeds)
	if err != nil {
		logger.WithError(err).Fatal("failed to seed properties")
	}

	logger.WithFields(logrus.Fields{
		"created": result.Created,
		"updated": result.Updated,
		"skipped": len(result.Skipped),
	}).Info("seed completed")
}

// loadSeeds reads the export from a local file or an http(s) URL.
func loadSeeds(ctx context.Context, source string) ([]service.PropertySeed, error) {
	var body io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("source returned status code: %d", resp.StatusCode)
		}
		body = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		body = f
	}
	defer body.Close()

	var seeds []service.PropertySeed
	if err := json.NewDecoder(body).Decode(&seeds); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return seeds, nil
}
