package repository

import (
	"context"
	"errors"

	"hcm/internal/domain/model"
)

// 見つからないを統一
var ErrPersonNotFound = errors.New("person not found")

// 人事レコードの保存・取得を約束
type PersonRepository interface {
	// 新規作成
	Create(ctx context.Context, person *model.Person) error
	// IDで1件取得。存在しない場合は (nil, nil)。
	FindByID(ctx context.Context, personID string) (*model.Person, error)
	// メールで1件取得。存在しない場合は (nil, nil)。
	FindByEmail(ctx context.Context, email string) (*model.Person, error)
	// ページング取得。departmentが空でなければ部署で絞る。
	List(ctx context.Context, q PersonListQuery) ([]model.Person, int64, error)
	// 更新
	Update(ctx context.Context, person *model.Person) error
	// 削除。対象がなければ ErrPersonNotFound。
	Delete(ctx context.Context, personID string) error
}

type PersonListQuery struct {
	Page       int
	PageSize   int
	Department string
}
