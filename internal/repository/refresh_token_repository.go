package repository

import (
	"context"
	"time"

	"hcm/internal/domain/model"
)

// リフレッシュトークンの保存・取得・削除
type RefreshTokenRepository interface {
	// 新しいトークンを生成して保存する。値は暗号学的乱数（32byte, base64url）。
	Create(ctx context.Context, personID string, now time.Time, lifetime time.Duration) (*model.RefreshToken, error)
	// 生の値で1件検索。存在しない場合は (nil, nil)。
	FindByValue(ctx context.Context, value string) (*model.RefreshToken, error)
	// 値で削除。対象がなくても成功（冪等）。
	Delete(ctx context.Context, value string) error
	// 指定ユーザーのトークンを全削除（全端末ログアウト）。
	DeleteAllByPersonID(ctx context.Context, personID string) error
}
