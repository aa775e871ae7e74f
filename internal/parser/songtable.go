package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// RawChart is a Data Transfer Object (DTO) used internally to pass the raw,
// unparsed string data from the extractors to the service's business logic.
type RawChart struct {
	Song       string
	Artist     string
	Difficulty string
	Constant   string
	Level      string
	Version    string
}

// ChartParser defines the contract for extracting raw chart data from the
// wiki's HTML. It knows how to read the page structures.
type ChartParser interface {
	ParseSongTable(ctx context.Context, reader io.Reader) ([]RawChart, error)
	ParseSongPage(ctx context.Context, reader io.Reader, fallbackTitle string) ([]RawChart, error)
	ParseNewsLinks(ctx context.Context, reader io.Reader) ([]string, error)
}

// wikiChartParser is the concrete implementation of the extraction logic.
type wikiChartParser struct {
}

// NewChartParser creates a new parser instance.
func NewChartParser() ChartParser {
	return &wikiChartParser{}
}

// Fandom can use wikitable sortable, article-table sortable, or plain wikitable.
// Tried in order; the first selector that matches anything wins.
var songTableSelectors = []string{
	"table.wikitable.sortable",
	"table.article-table.sortable",
	"table.wikitable",
	"table.sortable",
}

// minSongColumns is the column count of the Songs by Level table:
// Song, Artist, Difficulty, Chart Constant, Level, Version.
const minSongColumns = 6

// ParseSongTable extracts one RawChart per qualifying row of the Songs by
// Level table. A page without a recognizable table yields an empty slice,
// not an error; the caller decides whether that is fatal.
func (p *wikiChartParser) ParseSongTable(ctx context.Context, reader io.Reader) ([]RawChart, error) {
	doc, err := parseDocument(reader)
	if err != nil {
		return nil, err
	}

	tables := findSongTables(doc)

	var charts []RawChart
	for _, table := range tables {
		table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
			tds := row.Find("td")
			if tds.Length() < minSongColumns {
				return
			}
			// Song: often <a href="/wiki/...">Display name</a>
			songCell := tds.Eq(0)
			song := strings.TrimSpace(songCell.Find("a").First().Text())
			if song == "" {
				song = strings.TrimSpace(songCell.Text())
			}
			if song == "" {
				return
			}
			charts = append(charts, RawChart{
				Song:       song,
				Artist:     strings.TrimSpace(tds.Eq(1).Text()),
				Difficulty: strings.TrimSpace(tds.Eq(2).Text()),
				Constant:   strings.TrimSpace(tds.Eq(3).Text()),
				Level:      strings.TrimSpace(tds.Eq(4).Text()),
				Version:    strings.TrimSpace(tds.Eq(5).Text()),
			})
		})
	}

	return charts, nil
}

// findSongTables walks the selector chain and falls back to any table whose
// first data row carries enough cells.
func findSongTables(doc *goquery.Document) []*goquery.Selection {
	for _, sel := range songTableSelectors {
		matched := doc.Find(sel)
		if matched.Length() > 0 {
			var tables []*goquery.Selection
			matched.Each(func(i int, s *goquery.Selection) {
				tables = append(tables, s)
			})
			return tables
		}
	}

	// Fallback: first table with a 6+ cell data row
	var tables []*goquery.Selection
	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		qualifies := false
		table.Find("tbody tr").EachWithBreak(func(j int, row *goquery.Selection) bool {
			if row.Find("td").Length() >= minSongColumns {
				qualifies = true
				return false
			}
			return true
		})
		if qualifies {
			tables = append(tables, table)
			return false
		}
		return true
	})
	return tables
}

// parseDocument parses markup into a goquery document the same way for every
// extractor entry point.
func parseDocument(reader io.Reader) (*goquery.Document, error) {
	node, err := html.Parse(reader)
	if err != nil {
		if closer, ok := reader.(io.Closer); ok {
			closer.Close()
		}
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return goquery.NewDocumentFromNode(node), nil
}
