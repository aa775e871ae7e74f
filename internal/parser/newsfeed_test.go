package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const newsHTML = `
<div class="tabber">
  <div class="tabbertab" style="display:none;">
    <a href="/wiki/Hidden_Song">Hidden Song</a>
  </div>
  <div class="tabbertab" style="display:block;">
    <a href="/wiki/Tempestissimo">Tempestissimo</a>
    <a href="/wiki/File:Banner.png">banner</a>
    <a href="/wiki/Version_History#5.0">changelog</a>
    <a href="/wiki/Tempestissimo">again</a>
    <a href="https://example.com/external">external</a>
    <a href="/wiki/Axium_Crisis">Axium Crisis</a>
  </div>
</div>`

func TestParseNewsLinks(t *testing.T) {
	p := NewChartParser()

	names, err := p.ParseNewsLinks(context.Background(), strings.NewReader(newsHTML))
	require.NoError(t, err)

	// Only the displayed tab is scanned, namespaced links are dropped,
	// fragments are cut, duplicates collapse.
	require.Equal(t, []string{"Tempestissimo", "Version_History", "Axium_Crisis"}, names)
}

func TestParseNewsLinksFallsBackToFirstTab(t *testing.T) {
	html := `
<div class="tabber">
  <div class="tabbertab">
    <a href="/wiki/First_Song">x</a>
  </div>
  <div class="tabbertab">
    <a href="/wiki/Second_Song">y</a>
  </div>
</div>`

	p := NewChartParser()
	names, err := p.ParseNewsLinks(context.Background(), strings.NewReader(html))
	require.NoError(t, err)
	require.Equal(t, []string{"First_Song"}, names)
}

func TestParseNewsLinksNoTabber(t *testing.T) {
	p := NewChartParser()
	names, err := p.ParseNewsLinks(context.Background(), strings.NewReader("<p>no news</p>"))
	require.NoError(t, err)
	require.Empty(t, names)
}
