package middleware

import (
	"net/http"
	"strings"
	"time"

	"hcm/internal/token"

	"github.com/labstack/echo/v4"
)

const (
	CtxPersonIDKey   = "person_id"  // string (uuid)
	CtxRoleKey       = "role"       // string
	CtxDepartmentKey = "department" // string
)

// bearerAuth用のJWT検証ミドルウェア。
// decode失敗の理由は区別せず、すべて401で返す。
func AuthJWT(codec *token.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//署名と期限の検証はcodecに任せる
			claims, ok := codec.TryDecode(rawToken, time.Now())
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//contextへ保存
			c.Set(CtxPersonIDKey, claims.PersonID)
			c.Set(CtxRoleKey, string(claims.Role))
			c.Set(CtxDepartmentKey, claims.Department)

			return next(c)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
