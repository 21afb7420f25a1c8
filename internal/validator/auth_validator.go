package validator

import (
	"context"
	"net/mail"
	"strings"

	"hcm/internal/repository"
	"hcm/internal/usecase"
)

type authValidator struct {
	persons repository.PersonRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(persons repository.PersonRepository) usecase.AuthValidator {
	return &authValidator{persons: persons}
}

// サインアップの入力を検証
func (v *authValidator) ValidateSignup(ctx context.Context, req usecase.SignupRequest) error {
	email := strings.TrimSpace(req.Email)

	// 必須チェック
	if email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" || req.JobTitle == "" {
		return usecase.ErrValidation
	}

	// email形式
	if !isValidEmailFormat(email) {
		return usecase.ErrValidation
	}

	// パスワード最低文字数（8）と確認一致
	if len(req.Password) < 8 {
		return usecase.ErrValidation
	}
	if req.Password != req.ConfirmedPassword {
		return usecase.ErrValidation
	}

	if req.Salary < 0 {
		return usecase.ErrValidation
	}

	// email重複チェック（DBが必要）
	existing, err := v.persons.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return usecase.ErrEmailAlreadyUsed
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return usecase.ErrValidation
	}

	// email形式
	if !isValidEmailFormat(email) {
		return usecase.ErrValidation
	}

	return nil
}

// メールチェック
func isValidEmailFormat(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
