package repository

import (
	"context"
	"errors"

	"hcm/internal/domain/model"
	repo "hcm/internal/repository"

	"gorm.io/gorm"
)

type personGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewPersonRepository(db *gorm.DB) repo.PersonRepository {
	return &personGormRepository{db: db}
}

// Create は人事レコードを新規作成
func (r *personGormRepository) Create(ctx context.Context, person *model.Person) error {
	if err := r.db.WithContext(ctx).Create(person).Error; err != nil {
		return err
	}
	return nil
}

// IDで1件取得
func (r *personGormRepository) FindByID(ctx context.Context, personID string) (*model.Person, error) {
	var p model.Person

	err := r.db.WithContext(ctx).
		Where("id = ?", personID).
		First(&p).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &p, nil
}

// emailで1件取得
func (r *personGormRepository) FindByEmail(ctx context.Context, email string) (*model.Person, error) {
	var p model.Person

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&p).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &p, nil
}

// ページング取得。departmentが指定されていれば部署で絞る。
func (r *personGormRepository) List(ctx context.Context, q repo.PersonListQuery) ([]model.Person, int64, error) {
	// finisherの後のchain再利用は危ないので、クエリは都度組み立てる
	scoped := func() *gorm.DB {
		q2 := r.db.WithContext(ctx).Model(&model.Person{})
		if q.Department != "" {
			q2 = q2.Where("department = ?", q.Department)
		}
		return q2
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var persons []model.Person
	err := scoped().
		Order("created_at ASC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&persons).Error
	if err != nil {
		return nil, 0, err
	}

	return persons, total, nil
}

// レコードを更新。
func (r *personGormRepository) Update(ctx context.Context, person *model.Person) error {
	if err := r.db.WithContext(ctx).Save(person).Error; err != nil {
		return err
	}
	return nil
}

// レコードを削除。
func (r *personGormRepository) Delete(ctx context.Context, personID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", personID).
		Delete(&model.Person{})

	if result.Error != nil {
		return result.Error
	}

	// 0件削除は「対象がない」
	if result.RowsAffected == 0 {
		return repo.ErrPersonNotFound
	}
	return nil
}
