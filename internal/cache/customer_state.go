package cache

import (
	"context"
	"time"
)

// CustomerAuthState 顾客令牌吊销快照，TokenInvalidBefore 为 Unix 秒，早于该时间签发的令牌失效
type CustomerAuthState struct {
	CustomerID         string `json:"customer_id"`
	TokenInvalidBefore int64  `json:"token_invalid_before"`
	UpdatedAt          int64  `json:"updated_at"`
}

func customerAuthStateKey(customerID string) string {
	return "auth:customer:" + customerID
}

// GetCustomerAuthState 获取顾客鉴权快照
func GetCustomerAuthState(ctx context.Context, customerID string) (*CustomerAuthState, bool, error) {
	if customerID == "" {
		return nil, false, nil
	}
	var state CustomerAuthState
	hit, err := GetJSON(ctx, customerAuthStateKey(customerID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// RevokeCustomerTokens 吊销此刻之前签发的令牌，ttl 应不短于令牌有效期
func RevokeCustomerTokens(ctx context.Context, customerID string, now time.Time, ttl time.Duration) error {
	if customerID == "" {
		return nil
	}
	state := CustomerAuthState{
		CustomerID:         customerID,
		TokenInvalidBefore: now.Unix(),
		UpdatedAt:          now.Unix(),
	}
	return SetJSON(ctx, customerAuthStateKey(customerID), state, ttl)
}

// IsTokenRevoked 判断签发时间是否早于吊销时间点
func (s *CustomerAuthState) IsTokenRevoked(issuedAt time.Time) bool {
	if s == nil || s.TokenInvalidBefore == 0 {
		return false
	}
	return issuedAt.Unix() < s.TokenInvalidBefore
}
