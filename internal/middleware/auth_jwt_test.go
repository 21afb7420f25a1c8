package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hcm/internal/domain/model"
	"hcm/internal/token"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *token.Codec {
	return token.NewCodec("test-secret-test-secret", "hcm", "hcm-fe", 15*time.Minute)
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authz string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	err := mw(next)(c)
	require.NoError(t, err)

	return rec, c
}

func TestAuthJWT_ValidTokenSetsClaims(t *testing.T) {
	codec := newTestCodec()
	person := &model.Person{
		ID:         "7b8e1c4a-0a43-4a1e-9f6d-1d2f3a4b5c6d",
		Role:       model.RoleManager,
		Department: "HR",
	}

	signed, err := codec.Encode(person, time.Now())
	require.NoError(t, err)

	rec, c := doRequest(t, AuthJWT(codec), "Bearer "+signed)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, person.ID, c.Get(CtxPersonIDKey))
	assert.Equal(t, "Manager", c.Get(CtxRoleKey))
	assert.Equal(t, "HR", c.Get(CtxDepartmentKey))
}

func TestAuthJWT_Rejects(t *testing.T) {
	codec := newTestCodec()

	//ヘッダなし
	rec, _ := doRequest(t, AuthJWT(codec), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	//Bearer形式でない
	rec, _ = doRequest(t, AuthJWT(codec), "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	//壊れたtoken
	rec, _ = doRequest(t, AuthJWT(codec), "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	//期限切れtoken
	person := &model.Person{ID: "p-1", Role: model.RoleEmployee, Department: "IT"}
	signed, err := codec.Encode(person, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	rec, _ = doRequest(t, AuthJWT(codec), "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGuard(t *testing.T) {
	e := echo.New()

	call := func(role string, allowed ...model.Role) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != "" {
			c.Set(CtxRoleKey, role)
		}

		next := func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		}

		err := RoleGuard(allowed...)(next)(c)
		require.NoError(t, err)
		return rec.Code
	}

	//許可リストに入っていれば通る
	assert.Equal(t, http.StatusOK, call("HrAdmin", model.RoleHrAdmin))
	assert.Equal(t, http.StatusOK, call("Manager", model.RoleManager, model.RoleHrAdmin))

	//入っていなければ403
	assert.Equal(t, http.StatusForbidden, call("Employee", model.RoleHrAdmin))

	//roleが無ければ401
	assert.Equal(t, http.StatusUnauthorized, call("", model.RoleHrAdmin))
}
