package repository

import (
	"context"
	"fmt"
	"log"

	"chart_scraper/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultUpsertBatchSize is how many charts go into one upsert statement.
const DefaultUpsertBatchSize = 100

// ChartRepository defines the interface for persisting chart data.
type ChartRepository interface {
	UpsertCharts(ctx context.Context, charts []models.Chart) (int, error)
	CountCharts(ctx context.Context) (int, error)
	GetAllCharts(ctx context.Context, difficulty string) ([]models.Chart, error)
	// Init method for GORM AutoMigrate
	Init(ctx context.Context) error
}

// PostgresChartRepository implements the ChartRepository interface for PostgreSQL using GORM.
type PostgresChartRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewPostgresChartRepository creates a new instance with the default batch size.
func NewPostgresChartRepository(db *gorm.DB) *PostgresChartRepository {
	return &PostgresChartRepository{
		db:        db,
		batchSize: DefaultUpsertBatchSize,
	}
}

// WithBatchSize overrides the upsert batch size.
func (r *PostgresChartRepository) WithBatchSize(size int) *PostgresChartRepository {
	if size > 0 {
		r.batchSize = size
	}
	return r
}

// Init handles GORM's automatic table creation/migration.
func (r *PostgresChartRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&models.Chart{})
}

// UpsertCharts writes the charts in fixed-size batches issued one after
// another, upserting on the (title, artist, difficulty) identity. A failed
// batch aborts with an error naming it; batches already written stay
// committed — there is no cross-batch transaction.
func (r *PostgresChartRepository) UpsertCharts(ctx context.Context, charts []models.Chart) (int, error) {
	if len(charts) == 0 {
		return 0, nil
	}

	total := 0
	for start := 0; start < len(charts); start += r.batchSize {
		end := start + r.batchSize
		if end > len(charts) {
			end = len(charts)
		}
		batch := charts[start:end]

		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			// Target the unique index on (Title, Artist, Difficulty)
			Columns: []clause.Column{{Name: "title"}, {Name: "artist"}, {Name: "difficulty"}},
			// If a conflict occurs, update all columns so re-running the
			// sync with identical data stays idempotent.
			UpdateAll: true,
		}).Create(&batch)
		if result.Error != nil {
			return total, fmt.Errorf("upsert failed for batch %d-%d: %w", start+1, end, result.Error)
		}

		total += len(batch)
		log.Printf("Upserted rows %d-%d", start+1, total)
	}

	return total, nil
}

// CountCharts returns the total number of charts in the table.
func (r *PostgresChartRepository) CountCharts(ctx context.Context) (int, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Chart{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("gorm count failed: %w", result.Error)
	}
	return int(count), nil
}

// GetAllCharts fetches every chart, optionally filtered by difficulty name.
func (r *PostgresChartRepository) GetAllCharts(ctx context.Context, difficulty string) ([]models.Chart, error) {
	var charts []models.Chart
	query := r.db.WithContext(ctx)
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	result := query.Order("title, difficulty").Find(&charts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve charts: %w", result.Error)
	}
	return charts, nil
}
