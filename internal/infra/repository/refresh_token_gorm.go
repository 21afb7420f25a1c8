package repository

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"hcm/internal/domain/model"
	repo "hcm/internal/repository"

	"gorm.io/gorm"
)

type refreshTokenGormRepository struct {
	db *gorm.DB // DB接続（GORM）
}

// GORM実装
func NewRefreshTokenRepository(db *gorm.DB) repo.RefreshTokenRepository {
	return &refreshTokenGormRepository{db: db}
}

// 新しいトークン値を生成して保存する。
func (r *refreshTokenGormRepository) Create(ctx context.Context, personID string, now time.Time, lifetime time.Duration) (*model.RefreshToken, error) {
	value, err := generateSecureToken(32)
	if err != nil {
		return nil, err
	}

	token := &model.RefreshToken{
		Token:     value,
		PersonID:  personID,
		ExpiresAt: now.Add(lifetime),
	}

	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}

	return token, nil
}

// 生の値で1件検索。見つからないときは (nil, nil)。
func (r *refreshTokenGormRepository) FindByValue(ctx context.Context, value string) (*model.RefreshToken, error) {
	var token model.RefreshToken

	err := r.db.WithContext(ctx).
		Where("token = ?", value).
		First(&token).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &token, nil
}

// 値で削除。0件でもエラーにしない（冪等）。
func (r *refreshTokenGormRepository) Delete(ctx context.Context, value string) error {
	result := r.db.WithContext(ctx).
		Where("token = ?", value).
		Delete(&model.RefreshToken{})

	if result.Error != nil {
		return result.Error
	}

	return nil
}

// 指定ユーザーのリフレッシュトークンを全削除します。
func (r *refreshTokenGormRepository) DeleteAllByPersonID(ctx context.Context, personID string) error {
	if err := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Delete(&model.RefreshToken{}).Error; err != nil {
		return err
	}
	return nil
}

// ランダムなバイト列を作る（OSが持つ安全な乱数）。
// base64url（padding無し）なのでcookieにそのまま入れられる。
func generateSecureToken(bytesLen int) (string, error) {
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
