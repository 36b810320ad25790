package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	nats "github.com/nats-io/nats.go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chintakjoshi/authapp/config"
	httpadapter "github.com/chintakjoshi/authapp/internal/adapters/http"
	"github.com/chintakjoshi/authapp/internal/adapters/http/handlers"
	authmw "github.com/chintakjoshi/authapp/internal/adapters/http/middleware"
	"github.com/chintakjoshi/authapp/internal/adapters/mailer"
	natsadapter "github.com/chintakjoshi/authapp/internal/adapters/nats"
	repo "github.com/chintakjoshi/authapp/internal/adapters/postgres"
	"github.com/chintakjoshi/authapp/internal/domain"
	"github.com/chintakjoshi/authapp/internal/usecase"
	pkglog "github.com/chintakjoshi/authapp/pkg/log"
)

type App struct {
	cfg      *config.Config
	logger   pkglog.Logger
	db       *gorm.DB
	natsConn *nats.Conn
	sweeper  *usecase.Sweeper
	echo     *echo.Echo
}

func New(ctx context.Context) (*App, error) {
	cfg := config.MustLoad()
	appLogger := pkglog.New(cfg.AppEnv)

	// TranslateError turns driver duplicate-key failures into
	// gorm.ErrDuplicatedKey, which the workflows rely on to collapse races
	// on unique rows.
	db, err := gorm.Open(postgres.Open(buildDSN(cfg)), &gorm.Config{
		Logger:         loggerForGorm(cfg),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.PendingUser{},
		&domain.RefreshToken{},
		&domain.PasswordResetToken{},
	); err != nil {
		return nil, err
	}

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Printf("nats connect failed: %v", err)
			nc = nil
		}
	}

	userRepo := repo.NewUserRepository(db)
	pendingRepo := repo.NewPendingUserRepository(db)
	refreshRepo := repo.NewRefreshTokenRepository(db)
	resetRepo := repo.NewResetTokenRepository(db)

	codec, err := usecase.NewTokenCodec(cfg, nil)
	if err != nil {
		return nil, err
	}

	mail := mailer.NewSMTPMailer(appLogger, cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	var events usecase.UserPublisher
	if nc != nil {
		events = natsadapter.NewUserPublisher(nc, cfg.NATSUserCreateSubject)
	}

	service := usecase.NewAuthService(cfg, appLogger, userRepo, pendingRepo, refreshRepo, resetRepo, codec, mail, events, nil)
	handler := handlers.NewAuthHandler(service)
	authMW := authmw.NewAuthMiddleware(codec)
	router := httpadapter.NewRouter(handler, authMW.Handler)

	if nc != nil {
		verifyHandler := natsadapter.NewVerifyHandler(codec)
		if err := verifyHandler.Subscribe(nc, cfg.NATSVerifySubject, cfg.AppName); err != nil {
			log.Printf("nats subscribe failed: %v", err)
		}
	}

	sweeper := usecase.NewSweeper(appLogger, pendingRepo, resetRepo, refreshRepo,
		cfg.SweepPendingEvery, cfg.SweepResetEvery, cfg.SweepRefreshEvery, nil)

	e := echo.New()
	router.Setup(e)

	return &App{cfg: cfg, logger: appLogger, db: db, natsConn: nc, sweeper: sweeper, echo: e}, nil
}

func (a *App) Run(ctx context.Context) error {
	go a.sweeper.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.echo.Shutdown(shutdownCtx)
	}()
	go func() {
		errCh <- a.echo.Start(fmt.Sprintf("%s:%s", a.cfg.HTTPHost, a.cfg.HTTPPort))
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) Close() {
	if a.natsConn != nil {
		_ = a.natsConn.Drain()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
}

func loggerForGorm(cfg *config.Config) logger.Interface {
	level := logger.Silent
	switch cfg.AppEnv {
	case "local":
		level = logger.Info
	default:
		level = logger.Warn
	}
	return logger.Default.LogMode(level)
}
