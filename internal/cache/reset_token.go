package cache

import (
	"context"
	"fmt"
	"time"
)

type passwordResetState struct {
	UserID    uint  `json:"user_id"`
	IssuedAt  int64 `json:"issued_at"`
	ExpiresAt int64 `json:"expires_at"`
}

func passwordResetKey(token string) string {
	return fmt.Sprintf("reset:%s", token)
}

// SetPasswordResetToken 写入密码重置令牌
func SetPasswordResetToken(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	if token == "" || userID == 0 {
		return nil
	}
	now := time.Now()
	return SetJSON(ctx, passwordResetKey(token), &passwordResetState{
		UserID:    userID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}, ttl)
}

// GetPasswordResetToken 根据令牌取回用户ID
func GetPasswordResetToken(ctx context.Context, token string) (uint, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	var state passwordResetState
	hit, err := GetJSON(ctx, passwordResetKey(token), &state)
	if err != nil || !hit {
		return 0, hit, err
	}
	if state.ExpiresAt > 0 && time.Now().Unix() > state.ExpiresAt {
		return 0, false, nil
	}
	return state.UserID, true, nil
}

// DelPasswordResetToken 删除密码重置令牌（使用后作废）
func DelPasswordResetToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return Del(ctx, passwordResetKey(token))
}
