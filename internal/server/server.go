package server

import (
	"hcm/internal/config"
	"hcm/internal/handler"
	mw "hcm/internal/middleware"
	"hcm/internal/token"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Newはechoを組み立てて返す（テストからも使う）。
func New(cfg config.Config, codec *token.Codec, authH *handler.AuthHandler, personH *handler.PersonHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	//フロントだけ許可（cookieを使うのでcredentials必須）
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	metrics := mw.NewHTTPMetrics(prometheus.DefaultRegisterer)
	e.Use(metrics.Middleware())

	RegisterRoutes(e, codec, authH, personH)

	return e
}

func Start(cfg config.Config, codec *token.Codec, authH *handler.AuthHandler, personH *handler.PersonHandler) error {
	e := New(cfg, codec, authH, personH)

	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}

	return e.Start(addr)
}
