package usecase

import (
	"context"
	"errors"
	"time"

	"hcm/internal/domain/model"
	"hcm/internal/repository"
	"hcm/internal/token"
)

var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//401 認証失敗
	ErrInvalidCredentials = errors.New("invalid credentials")
	//401 リフレッシュ不可（不在・期限切れは区別しない）
	ErrInvalidRefresh = errors.New("invalid refresh")
	//409 email重複
	ErrEmailAlreadyUsed = errors.New("email already used")
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateSignup(ctx context.Context, req SignupRequest) error
	ValidateLogin(ctx context.Context, email string, password string) error
}

// UUID等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type PersonDTO struct {
	ID         string  `json:"id"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	JobTitle   string  `json:"jobTitle"`
	Salary     float64 `json:"salary"`
	Department string  `json:"department"`
	Role       string  `json:"role"`
}

type AccessTokenDTO struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type SignupRequest struct {
	FirstName         string  `json:"firstName"`
	LastName          string  `json:"lastName"`
	Email             string  `json:"email"`
	JobTitle          string  `json:"jobTitle"`
	Salary            float64 `json:"salary"`
	Department        string  `json:"department"`
	Password          string  `json:"password"`
	ConfirmedPassword string  `json:"confirmedPassword"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handlerがCookieに詰める値も一緒に返す
type AuthResult struct {
	Person            PersonDTO      `json:"person"`
	Token             AccessTokenDTO `json:"token"`
	PlainRefreshToken string         `json:"-"`
}

type AuthUsecase struct {
	persons   repository.PersonRepository
	rtRepo    repository.RefreshTokenRepository
	issuer    *token.Issuer
	hasher    PasswordHasher
	verifier  PasswordVerifier
	validator AuthValidator
	idGen     IDGenerator
	clock     Clock
	accessTTL time.Duration
}

func NewAuthUsecase(
	persons repository.PersonRepository,
	rtRepo repository.RefreshTokenRepository,
	issuer *token.Issuer,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	validator AuthValidator,
	idGen IDGenerator,
	clock Clock,
	accessTTL time.Duration,
) *AuthUsecase {
	return &AuthUsecase{
		persons:   persons,
		rtRepo:    rtRepo,
		issuer:    issuer,
		hasher:    hasher,
		verifier:  verifier,
		validator: validator,
		idGen:     idGen,
		clock:     clock,
		accessTTL: accessTTL,
	}
}

// Signupは本人登録。作成されるroleは必ずEmployee。
func (u *AuthUsecase) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateSignup(ctx, req); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := u.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	person := &model.Person{
		ID:           u.idGen.NewID(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		JobTitle:     req.JobTitle,
		Salary:       req.Salary,
		Department:   req.Department,
		Role:         model.RoleEmployee,
		PasswordHash: pwHash,
	}

	if err := u.persons.Create(ctx, person); err != nil {
		return nil, err
	}

	//トークンペア発行（新規ログインなのでpriorなし）
	return u.issuePair(ctx, person, nil)
}

// Loginはメール＋パスワードで認証してペアを発行する。
func (u *AuthUsecase) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	person, err := u.persons.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, ErrInvalidCredentials
	}

	//パスワード照合（bcrypt）
	if ok := u.verifier.Verify(req.Password, person.PasswordHash); !ok {
		return nil, ErrInvalidCredentials
	}

	return u.issuePair(ctx, person, nil)
}

// Refreshは保存済みトークンを検証してローテーションする。
// 不在も期限切れも同じErrInvalidRefreshで返す（存在の有無を漏らさない）。
func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenValue string) (*AuthResult, error) {
	if refreshTokenValue == "" {
		return nil, ErrInvalidRefresh
	}

	stored, err := u.rtRepo.FindByValue(ctx, refreshTokenValue)
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	if !token.IsRefreshTokenValid(stored, now) {
		//期限切れの行はここで遅延削除する（掃除デーモンは持たない）
		if stored != nil {
			_ = u.rtRepo.Delete(ctx, stored.Token)
		}
		return nil, ErrInvalidRefresh
	}

	person, err := u.persons.FindByID(ctx, stored.PersonID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, ErrInvalidRefresh
	}

	//旧トークンをpriorとして渡してローテーション
	return u.issuePair(ctx, person, stored)
}

// Logoutはcookieのトークンを失効させる。対象がなくても成功（冪等）。
func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenValue string) error {
	if refreshTokenValue == "" {
		return nil
	}
	return u.rtRepo.Delete(ctx, refreshTokenValue)
}

// LogoutAllは本人のリフレッシュトークンを全削除する（全端末ログアウト）。
func (u *AuthUsecase) LogoutAll(ctx context.Context, personID string) error {
	return u.rtRepo.DeleteAllByPersonID(ctx, personID)
}

func (u *AuthUsecase) issuePair(ctx context.Context, person *model.Person, prior *model.RefreshToken) (*AuthResult, error) {
	now := u.clock.Now()

	accessToken, refreshToken, err := u.issuer.IssueNewTokenPair(ctx, person, prior, now)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Person: toPersonDTO(person),
		Token: AccessTokenDTO{
			AccessToken: accessToken,
			ExpiresIn:   int(u.accessTTL.Seconds()),
		},
		PlainRefreshToken: refreshToken.Token,
	}, nil
}

// model.PersonをAPI返却用DTOに変換。password hashは含めない。
func toPersonDTO(p *model.Person) PersonDTO {
	return PersonDTO{
		ID:         p.ID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Email:      p.Email,
		JobTitle:   p.JobTitle,
		Salary:     p.Salary,
		Department: p.Department,
		Role:       string(p.Role),
	}
}
