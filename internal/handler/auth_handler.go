package handler

import (
	"errors"
	"net/http"
	"time"

	"hcm/internal/middleware"
	"hcm/internal/usecase"

	"github.com/labstack/echo/v4"
)

const refreshCookieName = "refreshToken"

type AuthHandler struct {
	authUC       *usecase.AuthUsecase
	refreshTTL   time.Duration // refresh cookie の有効期限
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(authUC *usecase.AuthUsecase, refreshTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authUC:       authUC,
		refreshTTL:   refreshTTL,
		cookieSecure: cookieSecure,
	}
}

// SignupはPOST /api/auth/signupのハンドラ
func (h *AuthHandler) Signup(c echo.Context) error {
	var req usecase.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	}

	out, err := h.authUC.Signup(c.Request().Context(), req)
	if err != nil {
		return h.writeAuthError(c, err)
	}

	h.setRefreshCookie(c, out.PlainRefreshToken)

	return c.JSON(http.StatusOK, out)
}

// LoginはPOST /api/auth/loginのハンドラ
func (h *AuthHandler) Login(c echo.Context) error {
	var req usecase.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	}

	out, err := h.authUC.Login(c.Request().Context(), req)
	if err != nil {
		return h.writeAuthError(c, err)
	}

	h.setRefreshCookie(c, out.PlainRefreshToken)

	return c.JSON(http.StatusOK, out)
}

// RefreshはPOST /api/auth/refresh-tokenのハンドラ。
// cookieのトークンでローテーションして新しいペアを返す。
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
	}

	out, err := h.authUC.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		return h.writeAuthError(c, err)
	}

	h.setRefreshCookie(c, out.PlainRefreshToken)

	return c.JSON(http.StatusOK, out)
}

// LogoutはPOST /api/auth/logoutのハンドラ。cookieが無くても204。
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.authUC.Logout(c.Request().Context(), cookie.Value); err != nil {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL"})
		}
	}

	h.clearRefreshCookie(c)

	return c.NoContent(http.StatusNoContent)
}

// LogoutAllはPOST /api/auth/logout-allのハンドラ（要認証）。
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	personID, ok := c.Get(middleware.CtxPersonIDKey).(string)
	if !ok || personID == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
	}

	if err := h.authUC.LogoutAll(c.Request().Context(), personID); err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL"})
	}

	h.clearRefreshCookie(c)

	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) writeAuthError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	case errors.Is(err, usecase.ErrEmailAlreadyUsed):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "CONFLICT"})
	case errors.Is(err, usecase.ErrInvalidCredentials), errors.Is(err, usecase.ErrInvalidRefresh):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL"})
	}
}

// refreshtokenをHTTP-only Cookieにセット。
func (h *AuthHandler) setRefreshCookie(c echo.Context, plainRefresh string) {
	cookie := &http.Cookie{
		Name:     refreshCookieName,
		Value:    plainRefresh,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.refreshTTL),
	}
	c.SetCookie(cookie)
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	cookie := &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
	c.SetCookie(cookie)
}
