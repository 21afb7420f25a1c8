package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"hcm/internal/domain/model"
	"hcm/internal/repository"
	"hcm/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// Mock: PersonRepository
// =====================

type MockPersonRepository struct {
	mock.Mock
}

func (m *MockPersonRepository) Create(ctx context.Context, person *model.Person) error {
	args := m.Called(ctx, person)
	return args.Error(0)
}

func (m *MockPersonRepository) FindByID(ctx context.Context, personID string) (*model.Person, error) {
	args := m.Called(ctx, personID)
	p, _ := args.Get(0).(*model.Person)
	return p, args.Error(1)
}

func (m *MockPersonRepository) FindByEmail(ctx context.Context, email string) (*model.Person, error) {
	args := m.Called(ctx, email)
	p, _ := args.Get(0).(*model.Person)
	return p, args.Error(1)
}

func (m *MockPersonRepository) List(ctx context.Context, q repository.PersonListQuery) ([]model.Person, int64, error) {
	args := m.Called(ctx, q)
	persons, _ := args.Get(0).([]model.Person)
	return persons, args.Get(1).(int64), args.Error(2)
}

func (m *MockPersonRepository) Update(ctx context.Context, person *model.Person) error {
	args := m.Called(ctx, person)
	return args.Error(0)
}

func (m *MockPersonRepository) Delete(ctx context.Context, personID string) error {
	args := m.Called(ctx, personID)
	return args.Error(0)
}

// =====================
/// Mock: AuthValidator
// =====================

type MockAuthValidator struct {
	mock.Mock
}

func (m *MockAuthValidator) ValidateSignup(ctx context.Context, req SignupRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

// =====================
// Fake: RefreshTokenRepository（保存の振る舞いが必要なのでmockではなくfake）
// =====================

type fakeRefreshTokenStore struct {
	mu   sync.Mutex
	rows map[string]model.RefreshToken
}

func newFakeRefreshTokenStore() *fakeRefreshTokenStore {
	return &fakeRefreshTokenStore{rows: map[string]model.RefreshToken{}}
}

func (s *fakeRefreshTokenStore) Create(ctx context.Context, personID string, now time.Time, lifetime time.Duration) (*model.RefreshToken, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}

	rt := model.RefreshToken{
		Token:     base64.RawURLEncoding.EncodeToString(b),
		PersonID:  personID,
		ExpiresAt: now.Add(lifetime),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rt.Token] = rt
	return &rt, nil
}

func (s *fakeRefreshTokenStore) FindByValue(ctx context.Context, value string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.rows[value]
	if !ok {
		return nil, nil
	}
	return &rt, nil
}

func (s *fakeRefreshTokenStore) Delete(ctx context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, value)
	return nil
}

func (s *fakeRefreshTokenStore) DeleteAllByPersonID(ctx context.Context, personID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for v, rt := range s.rows {
		if rt.PersonID == personID {
			delete(s.rows, v)
		}
	}
	return nil
}

func (s *fakeRefreshTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// expiresAtを直接書き換える（期限切れテスト用）
func (s *fakeRefreshTokenStore) forceExpire(value string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt := s.rows[value]
	rt.ExpiresAt = expiresAt
	s.rows[value] = rt
}

type fakeTxManager struct {
	store *fakeRefreshTokenStore
}

func (m *fakeTxManager) RefreshTokens() repository.RefreshTokenRepository { return m.store }

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(r repository.TxRepos) error) error {
	return fn(m)
}

// =====================
// Helper
// =====================

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type seqIDGenerator struct {
	n int
}

func (g *seqIDGenerator) NewID() string {
	g.n++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", g.n)
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	return string(b)
}

const (
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 24 * time.Hour
)

func newTestCodec() *token.Codec {
	return token.NewCodec("test-secret-test-secret", "hcm", "hcm-fe", testAccessTTL)
}

func newAuthUC(persons *MockPersonRepository, v *MockAuthValidator, store *fakeRefreshTokenStore, clock *fixedClock) *AuthUsecase {
	codec := newTestCodec()
	issuer := token.NewIssuer(codec, &fakeTxManager{store: store}, testRefreshTTL)

	return NewAuthUsecase(
		persons, store, issuer,
		NewBcryptPasswordHasher(bcrypt.MinCost), NewBcryptPasswordVerifier(), v,
		&seqIDGenerator{}, clock, testAccessTTL,
	)
}

func employee(t *testing.T, password string) *model.Person {
	return &model.Person{
		ID:           "7b8e1c4a-0a43-4a1e-9f6d-1d2f3a4b5c6d",
		FirstName:    "John",
		LastName:     "Doe",
		Email:        "john@example.com",
		JobTitle:     "Dev",
		Salary:       100,
		Department:   "IT",
		Role:         model.RoleEmployee,
		PasswordHash: mustHash(t, password),
	}
}

// =====================
// Login
// =====================

func TestAuthUsecase_Login_Success(t *testing.T) {
	ctx := context.Background()
	persons := new(MockPersonRepository)
	v := new(MockAuthValidator)
	store := newFakeRefreshTokenStore()
	clock := &fixedClock{now: time.Date(2025, 7, 17, 12, 0, 0, 0, time.UTC)}

	person := employee(t, "password123")
	v.On("ValidateLogin", ctx, person.Email, "password123").Return(nil)
	persons.On("FindByEmail", ctx, person.Email).Return(person, nil)

	uc := newAuthUC(persons, v, store, clock)
	out, err := uc.Login(ctx, LoginRequest{Email: person.Email, Password: "password123"})
	require.NoError(t, err)

	//アクセストークンのクレームは本人と一致
	claims, ok := newTestCodec().TryDecode(out.Token.AccessToken, clock.now)
	require.True(t, ok)
	assert.Equal(t, person.ID, claims.PersonID)
	assert.Equal(t, model.RoleEmployee, claims.Role)
	assert.Equal(t, int(testAccessTTL.Seconds()), out.Token.ExpiresIn)

	//リフレッシュトークンは保存済み
	stored, err := store.FindByValue(ctx, out.PlainRefreshToken)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, clock.now.Add(testRefreshTTL), stored.ExpiresAt)

	//返すDTOにhashは入らない
	assert.Equal(t, person.Email, out.Person.Email)
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()
	persons := new(MockPersonRepository)
	v := new(MockAuthValidator)
	store := newFakeRefreshTokenStore()
	clock := &fixedClock{now: time.Now()}

	person := employee(t, "password123")
	v.On("ValidateLogin", ctx, person.Email, "wrong-password").Return(nil)
	persons.On("FindByEmail", ctx, person.Email).Return(person, nil)

	uc := newAuthUC(persons, v, store, clock)
	_, err := uc.Login(ctx, LoginRequest{Email: person.Email, Password: "wrong-password"})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 0, store.count())
}

func TestAuthUsecase_Login_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	persons := new(MockPersonRepository)
	v := new(MockAuthValidator)
	store := newFakeRefreshTokenStore()
	clock := &fixedClock{now: time.Now()}

	v.On("ValidateLogin", ctx, "nobody@example.com", "password123").Return(nil)
	persons.On("FindByEmail", ctx, "nobody@example.com").Return(nil, nil)

	uc := newAuthUC(persons, v, store, clock)
	_, err := uc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password123"})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// =====================
// Signup
// =====================

func TestAuthUsecase_Signup_CreatesEmployeeAndIssuesPair(t *testing.T) {
	ctx := context.Background()
	persons := new(MockPersonRepository)
	v := new(MockAuthValidator)
	store := newFakeRefreshTokenStore()
	clock := &fixedClock{now: time.Date(2025, 7, 17, 12, 0, 0, 0, time.UTC)}

	req := SignupRequest{
		FirstName:         "John",
		LastName:          "Doe",
		Email:             "john@example.com",
		JobTitle:          "Dev",
		Salary:            100,
		Department:        "IT",
		Password:          "password123",
		ConfirmedPassword: "password123",
	}

	v.On("ValidateSignup", ctx, req).Return(nil)

	var created *model.Person
	persons.On("Create", ctx, mock.AnythingOfType("*model.Person")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*model.Person)
		}).
		Return(nil)

	uc := newAuthUC(persons, v, store, clock)
	out, err := uc.Signup(ctx, req)
	require.NoError(t, err)

	//サインアップは必ずEmployeeで作る
	require.NotNil(t, created)
	assert.Equal(t, model.RoleEmployee, created.Role)

	//平文は保存されない
	assert.NotEqual(t, "password123", created.PasswordHash)
	assert.True(t, NewBcryptPasswordVerifier().Verify("password123", created.PasswordHash))

	//ペアも発行される
	assert.NotEmpty(t, out.Token.AccessToken)
	assert.Equal(t, 1, store.count())
}

// =====================
// Refresh
// =====================

func TestAuthUsecase_Refresh_UnknownToken(t *testing.T) {
	ctx := context.Background()
	persons := new(MockPersonRepository)
	v := new(MockAuthValidator)
	store := newFakeRefreshTokenStore()
	clock := &fixedClock{now: time.Now()}

	uc := newAuthUC(persons, v, store, clock)

	//形式は正しいが発行していない値
	_, err := uc.Refresh(ctx, base64.RawURLEncoding.EncodeToString(make([]byte, 32)))

	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestAuthUsecase_Refresh_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	persons := new(MockPersonRepository)
	v := new(MockAuthValidator)
	store := newFakeRefreshTokenStore()
	clock := &fixedClock{now: time.Date(2025, 7, 17, 12, 0, 0, 0, time.UTC)}

	person := employee(t, "password123")
	v.On("ValidateLogin", ctx, person.Email, "password123").Return(nil)
	persons.On("FindByEmail", ctx, person.Email).Return(person, nil)

	uc := newAuthUC(persons, v, store, clock)
	out, err := uc.Login(ctx, LoginRequest{Email: person.Email, Password: "password123"})
	require.NoError(t, err)

	//保存行を期限切れにする
	store.forceExpire(out.PlainRefreshToken, clock.now.Add(-time.Second))

	_, err = uc.Refresh(ctx, out.PlainRefreshToken)

	//不在と同じエラー（区別させない）
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	//期限切れ行は遅延削除される
	assert.Equal(t, 0, store.count())
}

// ログイン → リフレッシュ → 使用済みトークン再提出 のシナリオ
func TestAuthUsecase_Scenario_LoginRefreshReplay(t *testing.T) {
	ctx := context.Background()
	persons := new(MockPersonRepository)
	v := new(MockAuthValidator)
	store := newFakeRefreshTokenStore()
	clock := &fixedClock{now: time.Date(2025, 7, 17, 12, 0, 0, 0, time.UTC)}

	person := employee(t, "password123")
	v.On("ValidateLogin", ctx, person.Email, "password123").Return(nil)
	persons.On("FindByEmail", ctx, person.Email).Return(person, nil)
	persons.On("FindByID", ctx, person.ID).Return(person, nil)

	uc := newAuthUC(persons, v, store, clock)

	//ログイン：A1とR1を受け取る
	login, err := uc.Login(ctx, LoginRequest{Email: person.Email, Password: "password123"})
	require.NoError(t, err)
	a1, r1 := login.Token.AccessToken, login.PlainRefreshToken

	//A1の期限内にR1でリフレッシュ
	clock.advance(time.Minute)
	refreshed, err := uc.Refresh(ctx, r1)
	require.NoError(t, err)
	a2, r2 := refreshed.Token.AccessToken, refreshed.PlainRefreshToken

	assert.NotEqual(t, a1, a2)
	assert.NotEqual(t, r1, r2)

	//R1はもう使えない
	_, err = uc.Refresh(ctx, r1)
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	//R2はまだ使える
	_, err = uc.Refresh(ctx, r2)
	assert.NoError(t, err)
}

// =====================
// Logout
// =====================

func TestAuthUsecase_Logout_Idempotent(t *testing.T) {
	ctx := context.Background()
	persons := new(MockPersonRepository)
	v := new(MockAuthValidator)
	store := newFakeRefreshTokenStore()
	clock := &fixedClock{now: time.Now()}

	person := employee(t, "password123")
	v.On("ValidateLogin", ctx, person.Email, "password123").Return(nil)
	persons.On("FindByEmail", ctx, person.Email).Return(person, nil)

	uc := newAuthUC(persons, v, store, clock)
	out, err := uc.Login(ctx, LoginRequest{Email: person.Email, Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, uc.Logout(ctx, out.PlainRefreshToken))
	assert.Equal(t, 0, store.count())

	//2回目も成功する（冪等）
	require.NoError(t, uc.Logout(ctx, out.PlainRefreshToken))

	//発行していない値でも成功する
	require.NoError(t, uc.Logout(ctx, "never-issued"))
}

func TestAuthUsecase_LogoutAll_RemovesAllSessions(t *testing.T) {
	ctx := context.Background()
	persons := new(MockPersonRepository)
	v := new(MockAuthValidator)
	store := newFakeRefreshTokenStore()
	clock := &fixedClock{now: time.Now()}

	person := employee(t, "password123")
	v.On("ValidateLogin", ctx, person.Email, "password123").Return(nil)
	persons.On("FindByEmail", ctx, person.Email).Return(person, nil)

	uc := newAuthUC(persons, v, store, clock)

	//複数端末ぶんのセッションを作る
	_, err := uc.Login(ctx, LoginRequest{Email: person.Email, Password: "password123"})
	require.NoError(t, err)
	_, err = uc.Login(ctx, LoginRequest{Email: person.Email, Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, 2, store.count())

	require.NoError(t, uc.LogoutAll(ctx, person.ID))
	assert.Equal(t, 0, store.count())
}
