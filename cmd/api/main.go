package main

import (
	"log"
	"time"

	"hcm/internal/config"
	"hcm/internal/domain/model"
	"hcm/internal/handler"
	"hcm/internal/infra/db"
	infraRepo "hcm/internal/infra/repository"
	"hcm/internal/server"
	"hcm/internal/token"
	"hcm/internal/usecase"
	"hcm/internal/validator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envは無くても良い（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.Person{},
		&model.RefreshToken{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//Repository（GORM実装）生成
	personRepo := infraRepo.NewPersonRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//token core
	codec := token.NewCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenTTL)
	issuer := token.NewIssuer(codec, txManager, cfg.RefreshTokenTTL)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（登録：Hash / ログイン：Verify）
	hasher := usecase.NewBcryptPasswordHasher(12)
	verifier := usecase.NewBcryptPasswordVerifier()

	authValidator := validator.NewAuthValidator(personRepo)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(
		personRepo, rtRepo, issuer,
		hasher, verifier, authValidator,
		idGen, clock, cfg.AccessTokenTTL,
	)
	personUC := usecase.NewPersonUsecase(personRepo, hasher, idGen)

	//Handler生成
	cookieSecure := cfg.GoEnv != "dev"
	authH := handler.NewAuthHandler(authUC, cfg.RefreshTokenTTL, cookieSecure)
	personH := handler.NewPersonHandler(personUC)

	//Server起動
	if err := server.Start(cfg, codec, authH, personH); err != nil {
		log.Fatalf("server: %v", err)
	}
}
