package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const songPageHTML = `
<h1 class="page-header__title">Grievous Lady</h1>
<div class="song-template-artist">Team Grimoire (feat. Amazuki)</div>
<table class="pi-horizontal-group">
<tbody>
<tr>
  <td>
    <span class="pi-data-value pst">3</span>
    <span class="pi-data-value prs">7</span>
    <span class="pi-data-value ftr">9</span>
    <span class="pi-data-value etr">-</span>
  </td>
  <td>notes</td>
  <td>
    <span class="pi-data-value pst">3.0</span>
    <span class="pi-data-value prs">7.0</span>
    <span class="pi-data-value ftr">9.1 (?)</span>
    <span class="pi-data-value etr"></span>
  </td>
</tr>
</tbody>
</table>`

func TestParseSongPage(t *testing.T) {
	p := NewChartParser()

	charts, err := p.ParseSongPage(context.Background(), strings.NewReader(songPageHTML), "Grievous_Lady")
	require.NoError(t, err)

	// Eternal has a bare dash level and must not be emitted
	require.Len(t, charts, 3)
	for _, c := range charts {
		require.Equal(t, "Grievous Lady", c.Song)
		// Parenthesized annotation stripped from the artist
		require.Equal(t, "Team Grimoire", c.Artist)
	}

	require.Equal(t, "Past", charts[0].Difficulty)
	require.Equal(t, "Present", charts[1].Difficulty)
	require.Equal(t, "Future", charts[2].Difficulty)

	// Noisy constant text is cleaned before it leaves the extractor
	require.Equal(t, "9.1", charts[2].Constant)
	require.Equal(t, "9", charts[2].Level)
}

func TestParseSongPageSecondPanelAddsBeyond(t *testing.T) {
	html := songPageHTML + `
<table class="pi-horizontal-group">
<tbody>
<tr><td>11</td><td>notes</td><td>11.3</td></tr>
</tbody>
</table>`

	p := NewChartParser()
	charts, err := p.ParseSongPage(context.Background(), strings.NewReader(html), "")
	require.NoError(t, err)
	require.Len(t, charts, 4)

	byd := charts[3]
	require.Equal(t, "Beyond", byd.Difficulty)
	require.Equal(t, "11", byd.Level)
	require.Equal(t, "11.3", byd.Constant)
}

func TestParseSongPageSecondPanelDoesNotDuplicateBeyond(t *testing.T) {
	html := `
<h1>Song</h1>
<table class="pi-horizontal-group">
<tbody>
<tr>
  <td><span class="byd">12</span></td>
  <td></td>
  <td><span class="byd">12.0</span></td>
</tr>
</tbody>
</table>
<table class="pi-horizontal-group">
<tbody>
<tr><td>12</td><td></td><td>12.0</td></tr>
</tbody>
</table>`

	p := NewChartParser()
	charts, err := p.ParseSongPage(context.Background(), strings.NewReader(html), "")
	require.NoError(t, err)
	require.Len(t, charts, 1)
	require.Equal(t, "Beyond", charts[0].Difficulty)
}

func TestParseSongPageTitleFallsBackToPageName(t *testing.T) {
	html := `
<table class="pi-horizontal-group">
<tbody>
<tr><td><span class="ftr">9</span></td><td></td><td><span class="ftr">9.0</span></td></tr>
</tbody>
</table>`

	p := NewChartParser()
	charts, err := p.ParseSongPage(context.Background(), strings.NewReader(html), "Lost_Civilization")
	require.NoError(t, err)
	require.Len(t, charts, 1)
	require.Equal(t, "Lost Civilization", charts[0].Song)
}

func TestParseSongPageNoPanels(t *testing.T) {
	p := NewChartParser()
	charts, err := p.ParseSongPage(context.Background(), strings.NewReader("<h1>Not a song</h1>"), "x")
	require.NoError(t, err)
	require.Empty(t, charts)
}

func TestCleanNumeric(t *testing.T) {
	require.Equal(t, "9.1", CleanNumeric("9.1 (?)"))
	require.Equal(t, "10", CleanNumeric("10"))
	require.Equal(t, "", CleanNumeric("?"))
	require.Equal(t, "", CleanNumeric(""))
	// Known quirk: a range keeps its inner minus and fails the parse
	require.Equal(t, "", CleanNumeric("9.0-9.5"))
}
