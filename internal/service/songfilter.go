package service

import (
	"context"
	"log"

	"chart_scraper/internal/repository"
)

// SONG_CATEGORY is the wiki category that marks a page as a song page.
const SONG_CATEGORY = "Category:Songs"

// DefaultCategoryBatchSize keeps each category query under the API's
// request-size limit.
const DefaultCategoryBatchSize = 50

// SongFilter defines the interface for deciding which page names are songs.
type SongFilter interface {
	FilterSongs(ctx context.Context, titles []string) ([]string, error)
}

// CategorySongFilter implements SongFilter by asking the wiki which
// categories each page belongs to.
type CategorySongFilter struct {
	repo      repository.WikiRepository
	batchSize int
}

// NewCategorySongFilter creates a new CategorySongFilter.
func NewCategorySongFilter(repo repository.WikiRepository, batchSize int) *CategorySongFilter {
	if batchSize <= 0 {
		batchSize = DefaultCategoryBatchSize
	}
	return &CategorySongFilter{
		repo:      repo,
		batchSize: batchSize,
	}
}

// FilterSongs returns, in input order, the titles whose pages carry the
// Songs category. Pages the wiki reports as missing are dropped. Lookups run
// in batches; a failed batch is logged and skipped so one bad request does
// not discard the whole candidate list.
func (f *CategorySongFilter) FilterSongs(ctx context.Context, titles []string) ([]string, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	var songs []string
	for i := 0; i < len(titles); i += f.batchSize {
		end := i + f.batchSize
		if end > len(titles) {
			end = len(titles)
		}

		batch := titles[i:end]
		categories, err := f.repo.QueryCategories(ctx, batch)
		if err != nil {
			log.Printf("Warning: category lookup failed for batch %d-%d: %v", i+1, end, err)
			continue
		}

		for _, title := range batch {
			cats, exists := categories[title]
			if !exists {
				// Nonexistent page
				continue
			}
			for _, cat := range cats {
				if cat == SONG_CATEGORY {
					songs = append(songs, title)
					break
				}
			}
		}
	}

	return songs, nil
}
