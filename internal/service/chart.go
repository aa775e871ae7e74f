package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"chart_scraper/internal/models"
	"chart_scraper/internal/parser"
	"chart_scraper/internal/repository"

	"golang.org/x/sync/errgroup"
)

// DefaultConstantCeiling is the cutoff above which charts are dropped from
// the sync output entirely.
const DefaultConstantCeiling = 13.0

// DefaultGapWorkers bounds how many gap pages are fetched at once.
const DefaultGapWorkers = 4

// ChartService defines the business logic contract for the sync pipeline.
type ChartService interface {
	// CollectCharts scrapes the songs-by-level table.
	CollectCharts(ctx context.Context) ([]parser.RawChart, error)
	// NewSongsFromNews finds songs referenced from the news feed that the
	// table does not cover yet and scrapes their individual pages.
	NewSongsFromNews(ctx context.Context, existing []parser.RawChart) ([]parser.RawChart, error)
	// Normalize turns raw rows into the deduplicated canonical chart set.
	Normalize(raws []parser.RawChart) []models.Chart
}

// chartService is the concrete service implementation. It depends on the
// wiki repository (low-level fetching), the chart parser (raw HTML
// extraction) and the song filter (category membership).
type chartService struct {
	Repo   repository.WikiRepository
	Parser parser.ChartParser
	Filter SongFilter

	SongsPage       string
	NewsPage        string
	GapWorkers      int
	ConstantCeiling float64
}

// Option adjusts a chartService during construction.
type Option func(*chartService)

// WithPages overrides the songs-by-level and news page names.
func WithPages(songsPage, newsPage string) Option {
	return func(s *chartService) {
		if songsPage != "" {
			s.SongsPage = songsPage
		}
		if newsPage != "" {
			s.NewsPage = newsPage
		}
	}
}

// WithGapWorkers bounds the gap-filling fetch concurrency.
func WithGapWorkers(n int) Option {
	return func(s *chartService) {
		if n > 0 {
			s.GapWorkers = n
		}
	}
}

// WithConstantCeiling overrides the exclusion cutoff.
func WithConstantCeiling(ceiling float64) Option {
	return func(s *chartService) {
		if ceiling > 0 {
			s.ConstantCeiling = ceiling
		}
	}
}

// NewChartService creates a new service instance with its dependencies.
func NewChartService(repo repository.WikiRepository, chartParser parser.ChartParser, filter SongFilter, opts ...Option) ChartService {
	s := &chartService{
		Repo:            repo,
		Parser:          chartParser,
		Filter:          filter,
		SongsPage:       "Songs_by_Level",
		NewsPage:        "Arcaea_Wiki",
		GapWorkers:      DefaultGapWorkers,
		ConstantCeiling: DefaultConstantCeiling,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CollectCharts fetches the songs-by-level page and extracts its table rows.
func (s *chartService) CollectCharts(ctx context.Context) ([]parser.RawChart, error) {
	log.Printf("Fetching %s...", s.SongsPage)
	reader, err := s.Repo.FetchPage(ctx, s.SongsPage)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.SongsPage, err)
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	charts, err := s.Parser.ParseSongTable(ctx, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to extract song table: %w", err)
	}
	log.Printf("Parsed %d rows from %s.", len(charts), s.SongsPage)
	return charts, nil
}

// NewSongsFromNews runs the gap check: scrape the news feed for page links,
// keep only song pages, diff against the songs already extracted, and
// scrape each missing song's own page.
func (s *chartService) NewSongsFromNews(ctx context.Context, existing []parser.RawChart) ([]parser.RawChart, error) {
	reader, err := s.Repo.FetchPage(ctx, s.NewsPage)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news page %s: %w", s.NewsPage, err)
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	names, err := s.Parser.ParseNewsLinks(ctx, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to extract news links: %w", err)
	}
	log.Printf("Found %d page links in the news section.", len(names))

	songNames, err := s.Filter.FilterSongs(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("song filter failed: %w", err)
	}

	gaps := ComputeGaps(songNames, KnownSongs(existing))
	log.Printf("Found %d new songs from the news section.", len(gaps))
	if len(gaps) == 0 {
		return nil, nil
	}

	return s.fillGaps(ctx, gaps), nil
}

// fillGaps scrapes one page per missing song through a bounded worker pool.
// Results land in a slice indexed by candidate so the merged order matches
// the candidate order no matter which fetch finishes first, and one page's
// failure never aborts the others.
func (s *chartService) fillGaps(ctx context.Context, gaps []string) []parser.RawChart {
	results := make([][]parser.RawChart, len(gaps))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.GapWorkers)
	for i, name := range gaps {
		g.Go(func() error {
			charts, err := s.fetchSong(gCtx, name)
			if err != nil {
				log.Printf("Warning: could not scrape song page '%s': %v", name, err)
				return nil
			}
			if len(charts) == 0 {
				log.Printf("Warning: no chart data found for '%s'", name)
				return nil
			}
			log.Printf("Added new song: %s", name)
			results[i] = charts
			return nil
		})
	}
	// Workers swallow their own errors, so Wait only synchronizes.
	_ = g.Wait()

	var filled []parser.RawChart
	for _, charts := range results {
		filled = append(filled, charts...)
	}
	return filled
}

// fetchSong fetches and parses one individual song page.
func (s *chartService) fetchSong(ctx context.Context, name string) ([]parser.RawChart, error) {
	reader, err := s.Repo.FetchPage(ctx, name)
	if err != nil {
		return nil, err
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}
	return s.Parser.ParseSongPage(ctx, reader, name)
}

// KnownSongs builds the membership oracle used for gap detection: song
// names normalized for comparison only, never for output.
func KnownSongs(charts []parser.RawChart) map[string]struct{} {
	known := make(map[string]struct{}, len(charts))
	for _, c := range charts {
		known[normalizeName(c.Song)] = struct{}{}
	}
	return known
}

// ComputeGaps returns the feed names whose normalized form is unknown.
func ComputeGaps(feedNames []string, known map[string]struct{}) []string {
	var gaps []string
	for _, name := range feedNames {
		if _, ok := known[normalizeName(name)]; !ok {
			gaps = append(gaps, name)
		}
	}
	return gaps
}

// normalizeName makes wiki page names and table song titles comparable:
// underscores become spaces, surrounding whitespace goes, case folds.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(name, "_", " ")))
}

// Normalize converts raw rows into canonical charts: fields trimmed, the
// constant parsed (empty, "-" or unparseable text means no constant),
// charts above the ceiling dropped, and duplicates collapsed by
// (title, artist, difficulty) with the last row winning. Output order is
// the order keys first appeared, so normalizing the same input twice
// produces identical output.
func (s *chartService) Normalize(raws []parser.RawChart) []models.Chart {
	type identity struct {
		title, artist, difficulty string
	}

	index := make(map[identity]int)
	var charts []models.Chart

	for _, raw := range raws {
		constant := parseConstant(raw.Constant)
		if constant != nil && *constant > s.ConstantCeiling {
			continue
		}

		chart := models.Chart{
			Title:      strings.TrimSpace(raw.Song),
			Artist:     strings.TrimSpace(raw.Artist),
			Difficulty: strings.TrimSpace(raw.Difficulty),
			Constant:   constant,
			Level:      strings.TrimSpace(raw.Level),
			Version:    strings.TrimSpace(raw.Version),
		}

		key := identity{chart.Title, chart.Artist, chart.Difficulty}
		if pos, seen := index[key]; seen {
			charts[pos] = chart
			continue
		}
		index[key] = len(charts)
		charts = append(charts, chart)
	}

	return charts
}

// parseConstant interprets a raw chart constant string. Absence is a value
// here, not an error.
func parseConstant(raw string) *float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "-" {
		return nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}
	return &value
}
