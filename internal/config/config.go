package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"

	"github.com/spf13/viper"
)

// Config holds the application configuration parameters.
type Config struct {
	DBConn            string
	WikiAPIURL        string
	WikiBaseURL       string
	SongsPage         string
	NewsPage          string
	ExportCSV         string
	SkipScrape        bool
	FetchMode         string
	GapWorkers        int
	ConstantCeiling   float64
	CategoryBatchSize int
	UpsertBatchSize   int
}

// Global constants for configuration keys
const (
	DBHostKey     = "DB_HOST"
	DBPortKey     = "DB_PORT"
	DBUserKey     = "DB_USER"
	DBPasswordKey = "DB_PASSWORD"
	DBNameKey     = "DB_NAME"

	WikiAPIURLKey        = "WIKI_API_URL"
	WikiBaseURLKey       = "WIKI_BASE_URL"
	SongsPageKey         = "SONGS_PAGE"
	NewsPageKey          = "NEWS_PAGE"
	ExportCSVKey         = "EXPORT_CSV"
	SkipScrapeKey        = "SKIP_SCRAPE"
	FetchModeKey         = "FETCH_MODE"
	GapWorkersKey        = "GAP_WORKERS"
	ConstantCeilingKey   = "CONSTANT_CEILING"
	CategoryBatchSizeKey = "CATEGORY_BATCH_SIZE"
	UpsertBatchSizeKey   = "UPSERT_BATCH_SIZE"
)

// Fetch modes for the wiki repository.
const (
	FetchModeAPI    = "api"
	FetchModeRender = "render"
)

// Init initializes Viper, sets defaults, and constructs the DSN.
func Init() *Config {
	// .env first so the variables are visible to AutomaticEnv below
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, relying on real environment variables.")
	}

	// --- File-based configuration ---
	viper.SetConfigName("config") // name of config file (e.g., config.yaml)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".") // look in the current directory

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found; this is not an error, we can rely on defaults/env
			log.Println("config.yaml not found, using defaults and environment variables.")
		}
	}

	// Set up Viper to read environment variables
	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()

	viper.SetDefault(WikiAPIURLKey, "https://arcaea.fandom.com/api.php")
	viper.SetDefault(WikiBaseURLKey, "https://arcaea.fandom.com")
	viper.SetDefault(SongsPageKey, "Songs_by_Level")
	viper.SetDefault(NewsPageKey, "Arcaea_Wiki")
	viper.SetDefault(ExportCSVKey, "charts_export.csv")
	viper.SetDefault(FetchModeKey, FetchModeAPI)
	viper.SetDefault(GapWorkersKey, 4)
	viper.SetDefault(ConstantCeilingKey, 13.0)
	viper.SetDefault(CategoryBatchSizeKey, 50)
	viper.SetDefault(UpsertBatchSizeKey, 100)

	// Construct the DSN from individual components
	dsn := buildDSN()

	viper.OnConfigChange(func(e fsnotify.Event) {
	})

	viper.WatchConfig()

	return &Config{
		DBConn:            dsn,
		WikiAPIURL:        viper.GetString(WikiAPIURLKey),
		WikiBaseURL:       viper.GetString(WikiBaseURLKey),
		SongsPage:         viper.GetString(SongsPageKey),
		NewsPage:          viper.GetString(NewsPageKey),
		ExportCSV:         viper.GetString(ExportCSVKey),
		SkipScrape:        viper.GetBool(SkipScrapeKey),
		FetchMode:         viper.GetString(FetchModeKey),
		GapWorkers:        viper.GetInt(GapWorkersKey),
		ConstantCeiling:   viper.GetFloat64(ConstantCeilingKey),
		CategoryBatchSize: viper.GetInt(CategoryBatchSizeKey),
		UpsertBatchSize:   viper.GetInt(UpsertBatchSizeKey),
	}
}

// buildDSN constructs the PostgreSQL DSN from individual config values read by Viper.
func buildDSN() string {
	host := viper.GetString(DBHostKey)
	port := viper.GetString(DBPortKey)
	user := viper.GetString(DBUserKey)
	password := viper.GetString(DBPasswordKey)
	dbname := viper.GetString(DBNameKey)

	if host == "" || user == "" || dbname == "" {
		log.Fatalf("Fatal Error: Missing mandatory database configuration (Host: %s, User: %s, DB Name: %s). Check ENV variables or config file.", host, user, dbname)
	}

	// Standard PostgreSQL DSN format
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Tokyo",
		host, user, password, dbname, port,
	)
	return dsn
}
