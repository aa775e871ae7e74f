package parser

import (
	"context"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const wikiPathPrefix = "/wiki/"

// ParseNewsLinks collects candidate page names from the news section of the
// wiki's front page. The news block is a tabber with one tab per language;
// only the tab whose inline style marks it displayed is scanned, falling
// back to the first tab when none is marked.
func (p *wikiChartParser) ParseNewsLinks(ctx context.Context, reader io.Reader) ([]string, error) {
	doc, err := parseDocument(reader)
	if err != nil {
		return nil, err
	}

	tabs := doc.Find("div.tabber div.tabbertab")
	if tabs.Length() == 0 {
		tabs = doc.Find("div.tabber")
	}

	container := tabs.First()
	tabs.EachWithBreak(func(i int, tab *goquery.Selection) bool {
		style, _ := tab.Attr("style")
		if strings.Contains(strings.ReplaceAll(style, " ", ""), "display:block") {
			container = tab
			return false
		}
		return true
	})

	seen := make(map[string]struct{})
	var names []string
	container.Find("a[href]").Each(func(i int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !strings.HasPrefix(href, wikiPathPrefix) {
			return
		}
		name := strings.TrimPrefix(href, wikiPathPrefix)
		// Namespaced pages (File:, Category:, ...) are never songs
		if strings.Contains(name, ":") {
			return
		}
		if idx := strings.Index(name, "#"); idx >= 0 {
			name = name[:idx]
		}
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	})

	return names, nil
}
