package models

import "time"

type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"-"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HistoryItem is a watched video with its owner embedded.
type HistoryItem struct {
	Video
	Owner *Owner `json:"owner"`
}
