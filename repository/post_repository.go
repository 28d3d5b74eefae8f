package repository

import (
	"errors"
	"fmt"

	"harmonyhub/db"
	"harmonyhub/model"

	"gorm.io/gorm"
)

// PostRepository defines the interface for the community feed.
type PostRepository interface {
	CreatePost(post *model.Post) error
	ListPosts(limit int) ([]*model.Post, error)
	GetPostByID(id string) (*model.Post, error)
	DeletePost(ownerID int64, id string) error
	// CreateComment 在同一事务内写入评论并递增动态的评论计数
	CreateComment(comment *model.Comment) error
	ListComments(postID string) ([]*model.Comment, error)
}

// gormPostRepository implements PostRepository with GORM.
type gormPostRepository struct {
	DB *gorm.DB
}

// NewGormPostRepository creates a new instance of gormPostRepository.
func NewGormPostRepository() PostRepository {
	return &gormPostRepository{DB: db.GormDB}
}

// CreatePost adds a new post to the feed.
func (r *gormPostRepository) CreatePost(post *model.Post) error {
	if err := r.DB.Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// ListPosts returns the newest posts first.
func (r *gormPostRepository) ListPosts(limit int) ([]*model.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	posts := make([]*model.Post, 0)
	if err := r.DB.Order("created_at DESC").Limit(limit).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetPostByID retrieves one post.
func (r *gormPostRepository) GetPostByID(id string) (*model.Post, error) {
	post := &model.Post{}
	err := r.DB.First(post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post %s: %w", id, err)
	}
	return post, nil
}

// DeletePost removes a post owned by ownerID, together with its comments.
func (r *gormPostRepository) DeletePost(ownerID int64, id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		post := &model.Post{}
		if err := tx.First(post, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load post %s: %w", id, err)
		}
		if post.UserID != ownerID {
			return ErrPermissionDenied
		}
		if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments of post %s: %w", id, err)
		}
		if err := tx.Delete(post).Error; err != nil {
			return fmt.Errorf("failed to delete post %s: %w", id, err)
		}
		return nil
	})
}

// CreateComment inserts the comment and bumps the parent's denormalized
// comment counter in one transaction, so the counter never drifts.
func (r *gormPostRepository) CreateComment(comment *model.Comment) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		post := &model.Post{}
		if err := tx.First(post, "id = ?", comment.PostID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load post %s: %w", comment.PostID, err)
		}
		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		if err := tx.Model(post).
			Update("comment_count", gorm.Expr("comment_count + ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to bump comment count for post %s: %w", comment.PostID, err)
		}
		return nil
	})
}

// ListComments returns a post's comments in chronological order.
func (r *gormPostRepository) ListComments(postID string) ([]*model.Comment, error) {
	comments := make([]*model.Comment, 0)
	if err := r.DB.Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to list comments for post %s: %w", postID, err)
	}
	return comments, nil
}
