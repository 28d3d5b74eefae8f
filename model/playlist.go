package model

import "time"

// Playlist 表示用户创建的歌单
// "library"（全部歌曲）是虚拟歌单，不落库，songIds 由当前可见歌曲推导
type Playlist struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	SongIDs   []string  `json:"songIds"` // 按插入顺序，服务端不做重排
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
