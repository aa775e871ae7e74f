package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"chart_scraper/internal/models"
	"chart_scraper/internal/parser"
)

// WriteCSV writes the canonical chart set to a flat CSV file in the fixed
// column order song, artist, difficulty, chart_constant, level, version.
// A chart without a constant gets an empty cell.
func WriteCSV(path string, charts []models.Chart) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create export file '%s': %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(models.CSVColumns); err != nil {
		return err
	}
	for _, c := range charts {
		constant := ""
		if c.Constant != nil {
			constant = strconv.FormatFloat(*c.Constant, 'f', -1, 64)
		}
		record := []string{c.Title, c.Artist, c.Difficulty, constant, c.Level, c.Version}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

// ReadCSV reads a previous export back into raw rows so a run can skip the
// scrape stage and re-normalize from disk.
func ReadCSV(path string) ([]parser.RawChart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open export file '%s': %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not read export file '%s': %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var charts []parser.RawChart
	for _, record := range records[1:] { // skip header
		if len(record) < len(models.CSVColumns) {
			continue
		}
		charts = append(charts, parser.RawChart{
			Song:       record[0],
			Artist:     record[1],
			Difficulty: record[2],
			Constant:   record[3],
			Level:      record[4],
			Version:    record[5],
		})
	}
	return charts, nil
}
