package main

import (
	"context"
	"fmt"
	"log"

	"kvitto/internal/cache/noop"
	redicache "kvitto/internal/cache/redis"
	"kvitto/internal/config"
	"kvitto/internal/geometry"
	"kvitto/internal/handler"
	"kvitto/internal/imaging"
	"kvitto/internal/parser"
	_ "kvitto/internal/parser/claude"
	_ "kvitto/internal/parser/gemini"
	_ "kvitto/internal/parser/openai"
	"kvitto/internal/port"
	"kvitto/internal/reconcile"
	"kvitto/internal/router"
	"kvitto/internal/service"
	s3storage "kvitto/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Extraction ladder: primary provider, optional secondary fallback
	docParser, err := buildParser(&cfg.Parser)
	if err != nil {
		return fmt.Errorf("failed to initialize parser: %w", err)
	}

	// Result cache
	resultCache, err := buildCache(&cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	// Object storage (optional; no bucket = inline images)
	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	// Optional geometry microservice
	var geometrySvc port.GeometryService
	if client := geometry.NewClient(&cfg.Geometry); client != nil {
		geometrySvc = client
	}

	normalizer := imaging.NewNormalizer(cfg.Geometry.MaxDimension)
	engine := reconcile.NewEngine()

	extractionSvc := service.NewExtractionService(normalizer, docParser, resultCache, storage, geometrySvc, engine, cfg)

	receiptH := handler.NewReceiptHandler(extractionSvc)
	healthH := handler.NewHealthHandler(geometrySvc)

	r := router.Setup(receiptH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// buildParser assembles the fallback ladder from the configured providers.
func buildParser(cfg *config.ParserConfig) (port.DocumentParser, error) {
	primary, err := parser.NewParser(&cfg.Primary)
	if err != nil {
		return nil, err
	}

	parsers := []port.DocumentParser{primary}
	names := []string{cfg.Primary.Provider}

	if secondaryCfg := cfg.SecondaryConfig(); secondaryCfg != nil {
		secondary, err := parser.NewParser(secondaryCfg)
		if err != nil {
			return nil, err
		}
		parsers = append(parsers, secondary)
		names = append(names, secondaryCfg.Provider)
	}

	return parser.NewFallbackParser(parsers, names, cfg.RetryMaxTokens), nil
}

func buildCache(cfg *config.CacheConfig) (port.Cache, error) {
	if cfg.Provider != "redis" {
		return noop.NewNoopCache(), nil
	}
	return redicache.NewCache(context.Background(), cfg)
}
