package parser

import (
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Title selectors tried in order after the primary .mw-page-title-main.
var titleFallbackSelectors = []string{
	"h1.page-header__title",
	"h1#firstHeading",
	".song-template-title",
	"h1",
}

// difficulties maps the class-name key embedded in the chart panel spans to
// the canonical difficulty name. Iterated in fixed order.
var difficulties = []struct {
	Name string
	Key  string
}{
	{"Past", "pst"},
	{"Present", "prs"},
	{"Future", "ftr"},
	{"Eternal", "etr"},
	{"Beyond", "byd"},
}

var (
	parenAnnotationRegex = regexp.MustCompile(`\([^)]+\)`)
	nonNumericRegex      = regexp.MustCompile(`[^\d.-]`)
)

// ParseSongPage extracts the per-difficulty charts from an individual song
// page. Pages without a chart panel yield an empty slice and no error; the
// caller treats that as "nothing found here".
func (p *wikiChartParser) ParseSongPage(ctx context.Context, reader io.Reader, fallbackTitle string) ([]RawChart, error) {
	doc, err := parseDocument(reader)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find(".mw-page-title-main").First().Text())
	if title == "" {
		for _, sel := range titleFallbackSelectors {
			title = strings.TrimSpace(doc.Find(sel).First().Text())
			if title != "" {
				break
			}
		}
	}
	if title == "" && fallbackTitle != "" {
		title = strings.ReplaceAll(fallbackTitle, "_", " ")
	}

	artist := ""
	if artistElem := doc.Find(".song-template-artist").First(); artistElem.Length() > 0 {
		artist = strings.TrimSpace(parenAnnotationRegex.ReplaceAllString(artistElem.Text(), ""))
	}

	var charts []RawChart
	panels := doc.Find("table.pi-horizontal-group")
	if panels.Length() == 0 {
		return charts, nil
	}

	// First panel: default tab with one span per difficulty, keyed by a
	// class-name substring. Cell 0 holds levels, cell 2 holds constants.
	cells := panels.Eq(0).Find("tbody td")
	if cells.Length() >= 3 {
		levelCell := cells.Eq(0)
		constantCell := cells.Eq(2)
		for _, diff := range difficulties {
			level := chartProp(levelCell, diff.Key)
			if level == "" || level == "-" {
				continue
			}
			charts = append(charts, RawChart{
				Song:       title,
				Artist:     artist,
				Difficulty: diff.Name,
				Constant:   CleanNumeric(chartProp(constantCell, diff.Key)),
				Level:      level,
			})
		}
	}

	// Second panel: a separate Beyond tab with plain cells, no keyed spans.
	if panels.Length() >= 2 {
		bydCells := panels.Eq(1).Find("tbody td")
		if bydCells.Length() >= 3 {
			level := strings.TrimSpace(bydCells.Eq(0).Text())
			if level != "" && level != "-" && !hasDifficulty(charts, "Beyond") {
				charts = append(charts, RawChart{
					Song:       title,
					Artist:     artist,
					Difficulty: "Beyond",
					Constant:   CleanNumeric(strings.TrimSpace(bydCells.Eq(2).Text())),
					Level:      level,
				})
			}
		}
	}

	return charts, nil
}

// chartProp reads the span keyed to one difficulty inside a panel cell.
func chartProp(cell *goquery.Selection, key string) string {
	return strings.TrimSpace(cell.Find(`span[class*="` + key + `"]`).First().Text())
}

func hasDifficulty(charts []RawChart, name string) bool {
	for _, c := range charts {
		if c.Difficulty == name {
			return true
		}
	}
	return false
}

// CleanNumeric strips everything but digits, dots and minus signs from a
// noisy constant string (handles "?", "(?)" and similar suffixes) and
// returns the canonical numeric text, or "" when nothing parseable remains.
// Deliberately permissive: a range like "9.0-9.5" keeps its inner minus,
// fails the parse and comes back empty rather than erroring.
func CleanNumeric(raw string) string {
	cleaned := nonNumericRegex.ReplaceAllString(raw, "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
