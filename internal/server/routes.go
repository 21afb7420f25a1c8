package server

import (
	"hcm/internal/domain/model"
	"hcm/internal/handler"
	mw "hcm/internal/middleware"
	"hcm/internal/token"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo, codec *token.Codec, authH *handler.AuthHandler, personH *handler.PersonHandler) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authJWT := mw.AuthJWT(codec)

	//認証
	auth := e.Group("/api/auth")
	auth.POST("/signup", authH.Signup)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh-token", authH.Refresh)
	auth.POST("/logout", authH.Logout)
	auth.POST("/logout-all", authH.LogoutAll, authJWT)

	//人事レコードCRUD
	persons := e.Group("/api/persons", authJWT)
	persons.POST("", personH.Create, mw.RoleGuard(model.RoleHrAdmin))
	persons.GET("", personH.List, mw.RoleGuard(model.RoleManager, model.RoleHrAdmin))
	persons.GET("/:id", personH.GetByID)
	persons.PUT("/:id", personH.Update, mw.RoleGuard(model.RoleManager, model.RoleHrAdmin))
	persons.DELETE("/:id", personH.Delete, mw.RoleGuard(model.RoleHrAdmin))
}
