package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	myPostgresRepo "github.com/skillsync-app/auth-service/internal/adapters/db/postgres"
	myRedisRepo "github.com/skillsync-app/auth-service/internal/adapters/db/redis"
	"github.com/skillsync-app/auth-service/internal/adapters/notify"
	myHTTP "github.com/skillsync-app/auth-service/internal/adapters/transport/http"
	httpmw "github.com/skillsync-app/auth-service/internal/adapters/transport/http/middleware"
	appjwt "github.com/skillsync-app/auth-service/internal/app/auth/jwt"
	appsvc "github.com/skillsync-app/auth-service/internal/app/auth/service"
	"github.com/skillsync-app/auth-service/internal/infra/config"
	lg "github.com/skillsync-app/auth-service/internal/infra/log"
	"github.com/skillsync-app/auth-service/internal/infra/migrate"
	"github.com/skillsync-app/auth-service/internal/infra/server"
)

func main() {
	zapLog := lg.Must(os.Getenv("debug"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()

	validate := validator.New()
	_ = validate.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		pwd := fl.Field().String()
		if utf8.RuneCountInString(pwd) < 8 {
			return false
		}
		var hasUpper, hasDigit bool
		for _, r := range pwd {
			if unicode.IsUpper(r) {
				hasUpper = true
			}
			if unicode.IsDigit(r) {
				hasDigit = true
			}
		}
		return hasUpper && hasDigit
	})

	userRepo := myPostgresRepo.NewPostgresUserRepo(db)
	tokenRepo := myRedisRepo.NewRedisTokenRepo(redisCli)
	otpRepo := myPostgresRepo.NewPostgresOTPRepo(db)

	notifier, err := notify.NewAMQPNotifier(cfg.AMQPUrl, cfg.NotifyQueue)
	if err != nil {
		zapLog.Fatal("failed to connect to message broker", zap.Error(err))
	}
	defer notifier.Close()

	codec, err := appjwt.NewCodec(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token codec", zap.Error(err))
	}

	svc := appsvc.New(userRepo, tokenRepo, otpRepo, notifier, codec, cfg, validate, zapLog)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))
	router.Use(httpmw.Metrics())
	router.Use(httpmw.NewRateLimitPerIP(50, 100, 10_000, time.Hour))

	corsConfig := cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))
	router.Use(httpmw.Session(svc, cfg, zapLog))

	handler := myHTTP.NewHandler(svc, cfg, zapLog, db, redisCli)
	handler.RegisterRoutes(router)

	rootCtx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return server.StartHTTPServer(ctx, cfg, router, zapLog)
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")
	cancel()

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
