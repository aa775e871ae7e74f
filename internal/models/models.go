package models

import "gorm.io/gorm"

// Chart represents one difficulty chart of a song.
//
// swagger:model Chart
type Chart struct {
	// GORM will automatically add ID, CreatedAt, UpdatedAt, DeletedAt
	gorm.Model

	// the song title
	//
	// required: true
	Title string `json:"title" gorm:"type:varchar(255);uniqueIndex:idx_chart_identity"`
	// the song artist
	//
	// required: true
	Artist string `json:"artist" gorm:"type:varchar(255);uniqueIndex:idx_chart_identity"`
	// the chart difficulty name (Past, Present, Future, Eternal, Beyond)
	//
	// required: true
	Difficulty string `json:"difficulty" gorm:"type:varchar(50);uniqueIndex:idx_chart_identity"`

	// Pointer so a chart without a published constant stays NULL in the DB
	// the chart constant rating
	Constant *float64 `json:"constant,omitempty" gorm:"type:numeric(4, 1)"`
	// the difficulty level label (e.g. "9", "10+")
	Level string `json:"level" gorm:"type:varchar(20)"`
	// the game version the chart was released in
	Version string `json:"version" gorm:"type:varchar(50)"`
}

// CSVColumns is the fixed column order of the flat export.
var CSVColumns = []string{"song", "artist", "difficulty", "chart_constant", "level", "version"}
