package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"harmonyhub/db"
)

// resetTokenTTL 密码重置令牌有效期
const resetTokenTTL = 15 * time.Minute

func resetKey(token string) string {
	return fmt.Sprintf("auth:reset:%s", token)
}

// CreateResetToken 为用户签发一次性密码重置令牌，带TTL
func CreateResetToken(ctx context.Context, userID int64) (string, error) {
	token := uuid.New().String()
	err := db.RedisClient.Set(ctx, resetKey(token), strconv.FormatInt(userID, 10), resetTokenTTL).Err()
	if err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return token, nil
}

// ConsumeResetToken 校验并消费令牌，成功后令牌立即失效
func ConsumeResetToken(ctx context.Context, token string) (int64, error) {
	key := resetKey(token)
	val, err := db.RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, fmt.Errorf("reset token is invalid or expired")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read reset token: %w", err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse reset token payload: %w", err)
	}
	if err := db.RedisClient.Del(ctx, key).Err(); err != nil {
		return 0, fmt.Errorf("failed to consume reset token: %w", err)
	}
	return userID, nil
}
