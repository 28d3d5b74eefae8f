package model

import "time"

// Song 表示曲库中的一首歌曲
type Song struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"userId"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Genre       string    `json:"genre"`       // 由AI分类器填写，失败时为 "Unknown"
	AlbumArtURL string    `json:"albumArtUrl"` // 为空时前端使用占位封面
	FileURL     string    `json:"fileUrl"`
	Duration    float64   `json:"duration"` // 时长（秒），读取失败时为0
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
