package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"chart_scraper/internal/config"
	"chart_scraper/internal/repository"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// initDatabase establishes a connection and initializes the repository.
func initDatabase(dsn string) repository.ChartRepository {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Fatal Error: Could not connect to the database: %v", err)
	}
	log.Println("Successfully connected to PostgreSQL for API server.")

	chartRepo := repository.NewPostgresChartRepository(db)

	// Init() handles migration, so the table is ready before serving
	if err := chartRepo.Init(context.Background()); err != nil {
		log.Fatalf("Fatal Error: Database migration failed: %v", err)
	}
	return chartRepo
}

type ChartApi struct {
	chartRepository repository.ChartRepository
}

// chartsHandler fetches charts from the database and serves them as JSON.
// An optional ?difficulty= query narrows the result to one difficulty.
func (c ChartApi) chartsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	charts, err := c.chartRepository.GetAllCharts(ctx, r.URL.Query().Get("difficulty"))
	if err != nil {
		http.Error(w, "Could not retrieve data from the database", http.StatusInternalServerError)
		log.Printf("Error fetching charts: %v", err)
		return
	}

	if err := json.NewEncoder(w).Encode(charts); err != nil {
		log.Printf("Error encoding charts response: %v", err)
	}
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func main() {
	appConfig := config.Init()

	api := ChartApi{chartRepository: initDatabase(appConfig.DBConn)}

	http.HandleFunc("/charts", api.chartsHandler)
	http.HandleFunc("/healthz", healthzHandler)

	log.Println("Chart API listening on :8080")
	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Fatalf("API server failed: %v", err)
	}
}
