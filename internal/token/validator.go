package token

import (
	"time"

	"hcm/internal/domain/model"
)

// 保存済みリフレッシュトークンが使えるかの純粋判定。
// 不在（nil）も期限切れもfalse。削除などの副作用は持たない。
func IsRefreshTokenValid(rt *model.RefreshToken, now time.Time) bool {
	if rt == nil {
		return false
	}
	if !now.Before(rt.ExpiresAt) {
		return false
	}
	return true
}
