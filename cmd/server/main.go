package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/job-board/internal/config"
	"github.com/iliyamo/job-board/internal/database"
	"github.com/iliyamo/job-board/internal/handler"
	"github.com/iliyamo/job-board/internal/logger"
	"github.com/iliyamo/job-board/internal/metrics"
	"github.com/iliyamo/job-board/internal/middleware"
	"github.com/iliyamo/job-board/internal/queue"
	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/router"
	"github.com/iliyamo/job-board/internal/service"
	"github.com/iliyamo/job-board/internal/storage"
	"github.com/iliyamo/job-board/internal/throttle"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file, using process environment")
	}
	cfg := config.MustLoad()

	metrics.Register(prometheus.DefaultRegisterer)
	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	err = database.Migrate(migrateCtx, db, database.Migrations)
	cancel()
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Fatalf("Failed to migrate database: %v", err)
	}

	rates, err := cfg.Limits.Rates()
	if err != nil {
		log.Fatalf("invalid throttle rates: %v", err)
	}
	proxies, err := cfg.ProxyRanges()
	if err != nil {
		log.Fatalf("invalid trusted proxies: %v", err)
	}

	var limiter throttle.Limiter = throttle.NewMemoryLimiter()
	var cacheMW echo.MiddlewareFunc
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
		limiter = throttle.NewFallback(throttle.NewRedisLimiter(rdb), limiter)
		cacheMW = middleware.NewRedisCache(cfg.Cache, rdb)
		log.Info("Redis connected: shared throttling and response cache enabled")
	} else {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).Warn("Redis unavailable: in-process throttling, no response cache")
	}

	files, err := storage.NewLocalStore(cfg.Storage)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Fatalf("Failed to prepare media root: %v", err)
	}

	bus := EventBus.New()
	if err := metrics.SubscribeEvents(bus); err != nil {
		log.Fatalf("subscribe metrics: %v", err)
	}
	var publisher *queue.Publisher
	if cfg.Queue.Enabled {
		publisher = queue.NewPublisher(cfg.Queue.Name, queue.Dialer(cfg.Queue.URL))
		if err := publisher.Subscribe(bus); err != nil {
			log.Fatalf("subscribe publisher: %v", err)
		}
		defer publisher.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	industries := repository.NewIndustryRepo(db)
	locations := repository.NewLocationRepo(db)
	companies := repository.NewCompanyRepo(db)
	jobs := repository.NewJobRepo(db)

	accounts := service.NewAccountService(users, repository.NewProfileRepo(db), tokens, files,
		service.NewPasswordPolicy(cfg.Password), cfg.Auth)
	catalog := service.NewCatalogService(industries, locations, companies, files)
	jobService := service.NewJobService(jobs, companies)
	applications := service.NewApplicationService(repository.NewApplicationRepo(db), jobs, files, bus)

	adminCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = accounts.EnsureAdmin(adminCtx, cfg.Admin)
	cancel()
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Fatalf("Failed to bootstrap admin: %v", err)
	}

	cleaner, err := service.NewTokenCleaner(tokens, cfg.Auth.PurgeSchedule)
	if err != nil {
		log.Fatalf("token cleaner: %v", err)
	}
	defer cleaner.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestLog())

	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(accounts),
		Account:      handler.NewAccountHandler(accounts),
		Catalog:      handler.NewCatalogHandler(catalog),
		Jobs:         handler.NewJobHandler(jobService),
		Applications: handler.NewApplicationHandler(applications),
	}, router.Options{
		JWTSecret: cfg.Auth.JWTSecret,
		Limits:    cfg.Limits,
		Rates:     rates,
		Limiter:   limiter,
		Cache:     cacheMW,
		MediaRoot: files.Root(),
		MediaURL:  cfg.Storage.BaseURL,
		DB:        db,

		TrustedProxies: proxies,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if cfg.Queue.Enabled {
		consumer := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.Name, cfg.Queue.LogFile)
		g.Go(func() error { return consumer.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeHTTP).Errorf("server stopped: %v", err)
	}
	bus.WaitAsync()
	log.Info("shutdown complete")
}
