package model

import "time"

// Post 表示社区动态
// 作者展示字段为冗余存储，避免展示时再查用户表
type Post struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	UserID       int64     `json:"userId" gorm:"index"`
	Username     string    `json:"username" gorm:"size:64"`
	UserImageURL string    `json:"userImageUrl" gorm:"size:512"`
	Content      string    `json:"content" gorm:"type:text"`
	ImageURL     string    `json:"imageUrl,omitempty" gorm:"size:512"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Comment 表示动态下的评论，回指所属动态
type Comment struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	PostID       string    `json:"postId" gorm:"index;size:36"`
	UserID       int64     `json:"userId"`
	Username     string    `json:"username" gorm:"size:64"`
	UserImageURL string    `json:"userImageUrl" gorm:"size:512"`
	Content      string    `json:"content" gorm:"type:text"`
	CreatedAt    time.Time `json:"createdAt"`
}
