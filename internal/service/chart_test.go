package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chart_scraper/internal/export"
	"chart_scraper/internal/models"
	"chart_scraper/internal/parser"
	"chart_scraper/internal/repository"

	"github.com/stretchr/testify/require"
)

// fakeWiki serves canned pages and categories without the network.
var _ repository.WikiRepository = (*fakeWiki)(nil)

type fakeWiki struct {
	pages    map[string]string
	failing  map[string]bool
	cats     map[string][]string
	catCalls [][]string
}

func (f *fakeWiki) FetchPage(ctx context.Context, title string) (io.Reader, error) {
	if f.failing[title] {
		return nil, fmt.Errorf("simulated fetch failure for %s", title)
	}
	page, ok := f.pages[title]
	if !ok {
		return nil, fmt.Errorf("no such page %s", title)
	}
	return strings.NewReader(page), nil
}

func (f *fakeWiki) QueryCategories(ctx context.Context, titles []string) (map[string][]string, error) {
	f.catCalls = append(f.catCalls, titles)
	result := make(map[string][]string)
	for _, title := range titles {
		if cats, ok := f.cats[title]; ok {
			result[title] = cats
		}
	}
	return result, nil
}

func raw(song, difficulty, constant string) parser.RawChart {
	return parser.RawChart{Song: song, Artist: "artist", Difficulty: difficulty, Constant: constant, Level: "9", Version: "1.0"}
}

func newTestService(repo *fakeWiki, opts ...Option) ChartService {
	var filter SongFilter
	if repo != nil {
		filter = NewCategorySongFilter(repo, 50)
	}
	return NewChartService(repo, parser.NewChartParser(), filter, opts...)
}

func TestNormalizeConstantCeiling(t *testing.T) {
	svc := newTestService(nil)

	charts := svc.Normalize([]parser.RawChart{
		raw("kept at ceiling", "Future", "13.0"),
		raw("dropped above ceiling", "Future", "13.1"),
		raw("kept empty", "Future", ""),
		raw("kept dash", "Future", "-"),
		raw("kept unparseable", "Future", "??"),
	})

	require.Len(t, charts, 4)
	require.Equal(t, "kept at ceiling", charts[0].Title)
	require.NotNil(t, charts[0].Constant)
	require.Equal(t, 13.0, *charts[0].Constant)
	for _, c := range charts[1:] {
		require.Nil(t, c.Constant)
	}
}

func TestNormalizeDedupLastWriteWins(t *testing.T) {
	svc := newTestService(nil)

	charts := svc.Normalize([]parser.RawChart{
		raw("A", "Past", "5.0"),
		raw("B", "Future", "9.0"),
		raw("A", "Past", "5.5"), // same identity, later row wins
	})

	require.Len(t, charts, 2)
	// First-appearance order is preserved while the value is replaced
	require.Equal(t, "A", charts[0].Title)
	require.Equal(t, 5.5, *charts[0].Constant)
	require.Equal(t, "B", charts[1].Title)
}

func TestNormalizeIdempotent(t *testing.T) {
	svc := newTestService(nil)
	raws := []parser.RawChart{
		raw("A", "Past", "5.0"),
		raw("B", "Future", "9.0"),
		raw("A", "Past", "5.5"),
		raw("C", "Beyond", "-"),
	}

	require.Equal(t, svc.Normalize(raws), svc.Normalize(raws))
}

func TestComputeGaps(t *testing.T) {
	known := KnownSongs([]parser.RawChart{{Song: "foo bar"}})

	gaps := ComputeGaps([]string{"Foo_Bar", "Baz"}, known)

	require.Equal(t, []string{"Baz"}, gaps)
}

const gapSongPage = `
<h1 class="page-header__title">Baz</h1>
<table class="pi-horizontal-group">
<tbody>
<tr><td><span class="ftr">9</span></td><td></td><td><span class="ftr">9.2</span></td></tr>
</tbody>
</table>`

func TestNewSongsFromNewsIsolatesPageFailures(t *testing.T) {
	wiki := &fakeWiki{
		pages: map[string]string{
			"Arcaea_Wiki": `<div class="tabber"><div class="tabbertab" style="display:block">
				<a href="/wiki/Broken_Song">x</a>
				<a href="/wiki/Baz">y</a>
			</div></div>`,
			"Baz": gapSongPage,
		},
		failing: map[string]bool{"Broken_Song": true},
		cats: map[string][]string{
			"Broken_Song": {SONG_CATEGORY},
			"Baz":         {SONG_CATEGORY},
		},
	}
	svc := newTestService(wiki)

	charts, err := svc.NewSongsFromNews(context.Background(), nil)
	require.NoError(t, err)

	// The broken page is skipped with a warning; the good one still lands.
	require.Len(t, charts, 1)
	require.Equal(t, "Baz", charts[0].Song)
	require.Equal(t, "Future", charts[0].Difficulty)
}

func TestNewSongsFromNewsSkipsKnownSongs(t *testing.T) {
	wiki := &fakeWiki{
		pages: map[string]string{
			"Arcaea_Wiki": `<div class="tabber"><div class="tabbertab" style="display:block">
				<a href="/wiki/Foo_Bar">x</a>
			</div></div>`,
		},
		cats: map[string][]string{"Foo_Bar": {SONG_CATEGORY}},
	}
	svc := newTestService(wiki)

	charts, err := svc.NewSongsFromNews(context.Background(), []parser.RawChart{{Song: "foo bar"}})
	require.NoError(t, err)
	require.Empty(t, charts)
}

func TestFullSyncScenario(t *testing.T) {
	wiki := &fakeWiki{
		pages: map[string]string{
			"Songs_by_Level": `<table class="wikitable sortable"><tbody>
				<tr><td><a href="/wiki/A">A</a></td><td>artist</td><td>PST</td><td>5.0</td><td>5</td><td>1.0</td></tr>
				<tr><td><a href="/wiki/A">A</a></td><td>artist</td><td>FTR</td><td>14.0</td><td>11</td><td>1.0</td></tr>
			</tbody></table>`,
			"Arcaea_Wiki": `<div class="tabber"><div class="tabbertab" style="display:block"></div></div>`,
		},
	}
	svc := newTestService(wiki)
	ctx := context.Background()

	raws, err := svc.CollectCharts(ctx)
	require.NoError(t, err)
	require.Len(t, raws, 2)

	gapRows, err := svc.NewSongsFromNews(ctx, raws)
	require.NoError(t, err)
	require.Empty(t, gapRows)

	charts := svc.Normalize(append(raws, gapRows...))
	require.Len(t, charts, 1)
	require.Equal(t, "PST", charts[0].Difficulty)
	require.Equal(t, 5.0, *charts[0].Constant)

	path := filepath.Join(t.TempDir(), "charts_export.csv")
	require.NoError(t, export.WriteCSV(path, charts))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2) // header + exactly one data row

	store := &fakeChartStore{}
	count, err := store.UpsertCharts(ctx, charts)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, 1, store.calls)
}

// fakeChartStore records upsert calls without a database.
var _ repository.ChartRepository = (*fakeChartStore)(nil)

type fakeChartStore struct {
	calls    int
	upserted []models.Chart
}

func (f *fakeChartStore) UpsertCharts(ctx context.Context, charts []models.Chart) (int, error) {
	f.calls++
	f.upserted = append(f.upserted, charts...)
	return len(charts), nil
}

func (f *fakeChartStore) CountCharts(ctx context.Context) (int, error) {
	return len(f.upserted), nil
}

func (f *fakeChartStore) GetAllCharts(ctx context.Context, difficulty string) ([]models.Chart, error) {
	return f.upserted, nil
}

func (f *fakeChartStore) Init(ctx context.Context) error { return nil }
