package token

import (
	"context"
	"time"

	"hcm/internal/domain/model"
	"hcm/internal/repository"
)

// アクセストークンとリフレッシュトークンをまとめて発行する調整役。
// 自身は状態を持たないので複数リクエストから同時に呼んで良い。
type Issuer struct {
	codec      *Codec
	tx         repository.TransactionManager
	refreshTTL time.Duration
}

func NewIssuer(codec *Codec, tx repository.TransactionManager, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		codec:      codec,
		tx:         tx,
		refreshTTL: refreshTTL,
	}
}

// IssueNewTokenPairは新しいペアを発行する。priorがあればローテーションとして削除する。
//
// 順序は「新規作成 → 旧削除」を1トランザクションで行う。途中で落ちても
// 有効なトークンが2本残るだけで、セッションが消えることはない。
// 同じpriorで同時に呼ばれた場合は片方の削除が空振りになるが、削除は冪等なので問題ない。
func (i *Issuer) IssueNewTokenPair(
	ctx context.Context,
	person *model.Person,
	prior *model.RefreshToken,
	now time.Time,
) (string, *model.RefreshToken, error) {
	accessToken, err := i.codec.Encode(person, now)
	if err != nil {
		return "", nil, err
	}

	var refreshToken *model.RefreshToken

	err = i.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		created, err := r.RefreshTokens().Create(ctx, person.ID, now, i.refreshTTL)
		if err != nil {
			return err
		}

		if prior != nil {
			if err := r.RefreshTokens().Delete(ctx, prior.Token); err != nil {
				return err
			}
		}

		refreshToken = created
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	return accessToken, refreshToken, nil
}
