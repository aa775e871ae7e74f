package main

import (
	"context"
	"fmt"
	"log"

	"chart_scraper/internal/config"
	"chart_scraper/internal/export"
	"chart_scraper/internal/parser"
	"chart_scraper/internal/repository"
	"chart_scraper/internal/service"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// --- Main Application Logic ---
func main() {
	// 1. Load configuration (fatal here if DB credentials are missing, before
	// any network activity happens)
	appConfig := config.Init()

	// 2. Database Connection (using GORM)
	db, err := gorm.Open(postgres.Open(appConfig.DBConn), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		log.Fatalf("Error connecting to database with GORM: %v", err)
	}
	log.Println("Successfully connected to PostgreSQL using GORM!")

	// 3. Dependency Injection: Initialize components
	var wikiRepo repository.WikiRepository
	if appConfig.FetchMode == config.FetchModeRender {
		wikiRepo = repository.NewRenderedWikiRepository(appConfig.WikiBaseURL, appConfig.WikiAPIURL)
		log.Println("Fetch mode: headless rendering.")
	} else {
		wikiRepo = repository.NewAPIWikiRepository(appConfig.WikiAPIURL)
	}
	chartRepo := repository.NewPostgresChartRepository(db).WithBatchSize(appConfig.UpsertBatchSize)

	// 4. Database Migration
	ctx := context.Background()
	if err := chartRepo.Init(ctx); err != nil {
		log.Fatalf("Failed to run database auto-migration: %v", err)
	}
	log.Println("Database structure verified/migrated successfully.")

	songFilter := service.NewCategorySongFilter(wikiRepo, appConfig.CategoryBatchSize)
	chartService := service.NewChartService(
		wikiRepo,
		parser.NewChartParser(),
		songFilter,
		service.WithPages(appConfig.SongsPage, appConfig.NewsPage),
		service.WithGapWorkers(appConfig.GapWorkers),
		service.WithConstantCeiling(appConfig.ConstantCeiling),
	)

	// 5. Collect raw rows: scrape the songs-by-level table, or reuse the
	// previous export when asked to skip the scrape.
	var raws []parser.RawChart
	if appConfig.SkipScrape {
		raws, err = export.ReadCSV(appConfig.ExportCSV)
		if err != nil {
			log.Fatalf("Could not reuse existing export: %v", err)
		}
		log.Printf("Using existing %s (%d rows).", appConfig.ExportCSV, len(raws))
	} else {
		raws, err = chartService.CollectCharts(ctx)
		if err != nil {
			log.Fatalf("Song table scrape failed: %v", err)
		}
	}
	if len(raws) == 0 {
		log.Fatal("No rows from the song table. Exiting.")
	}

	// 6. Gap check: songs announced in the news that the table misses yet.
	// A failure here is logged and the run continues with what exists.
	log.Println("Scraping news section for new songs...")
	gapRows, err := chartService.NewSongsFromNews(ctx, raws)
	if err != nil {
		log.Printf("News section scraping failed: %v. Continuing with the table rows.", err)
	} else {
		raws = append(raws, gapRows...)
	}

	// 7. Normalize, deduplicate, export
	charts := chartService.Normalize(raws)
	log.Printf("Normalized %d raw rows into %d charts.", len(raws), len(charts))

	if err := export.WriteCSV(appConfig.ExportCSV, charts); err != nil {
		log.Fatalf("Could not write export CSV: %v", err)
	}
	log.Printf("Wrote %d rows to %s.", len(charts), appConfig.ExportCSV)

	// 8. Batched idempotent upsert. A failed batch aborts the run; batches
	// already written stay in place.
	upserted, err := chartRepo.UpsertCharts(ctx, charts)
	if err != nil {
		log.Fatalf("Upsert aborted after %d rows: %v", upserted, err)
	}

	// 9. Final Output
	totalCount, err := chartRepo.CountCharts(ctx)
	if err != nil {
		log.Printf("Warning: Could not get final chart count from DB: %v", err)
	}

	fmt.Printf("\n--- SYNC COMPLETE ---\n")
	fmt.Printf("Upserted %d charts this run; %d charts total in PostgreSQL.\n", upserted, totalCount)
}
