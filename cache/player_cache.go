package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"harmonyhub/core/player"
	"harmonyhub/db"
	"harmonyhub/logger"
)

// playerSnapshotTTL 播放器快照的过期时间，超过一周未活动则丢弃
const playerSnapshotTTL = 7 * 24 * time.Hour

// PlayerSnapshot 播放器偏好的持久化快照
// 只保存范围与偏好，不保存播放中的进度
type PlayerSnapshot struct {
	ActivePlaylist player.PlaylistRef `json:"activePlaylist"`
	SearchQuery    string             `json:"searchQuery"`
	Shuffled       bool               `json:"shuffled"`
	RepeatMode     player.RepeatMode  `json:"repeatMode"`
	Volume         float64            `json:"volume"`
	Muted          bool               `json:"muted"`
	SongID         string             `json:"songId,omitempty"`
	SavedAt        int64              `json:"savedAt"`
}

func playerKey(userID int64) string {
	return fmt.Sprintf("player:session:%d", userID)
}

// SavePlayerSnapshot 写入用户的播放器快照
func SavePlayerSnapshot(ctx context.Context, userID int64, snap *PlayerSnapshot) error {
	snap.SavedAt = time.Now().Unix()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal player snapshot: %w", err)
	}
	if err := db.RedisClient.Set(ctx, playerKey(userID), data, playerSnapshotTTL).Err(); err != nil {
		return fmt.Errorf("failed to save player snapshot: %w", err)
	}
	return nil
}

// LoadPlayerSnapshot 读取用户的播放器快照，不存在时返回 nil
func LoadPlayerSnapshot(ctx context.Context, userID int64) (*PlayerSnapshot, error) {
	data, err := db.RedisClient.Get(ctx, playerKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player snapshot: %w", err)
	}
	var snap PlayerSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// 快照损坏时丢弃，不阻断播放器创建
		logger.Warn("Discarding corrupted player snapshot",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		return nil, nil
	}
	return &snap, nil
}

// DeletePlayerSnapshot 删除用户的播放器快照
func DeletePlayerSnapshot(ctx context.Context, userID int64) error {
	return db.RedisClient.Del(ctx, playerKey(userID)).Err()
}
