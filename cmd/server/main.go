package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/titoih/mi-municipio/internal/api"
	"github.com/titoih/mi-municipio/internal/config"
	"github.com/titoih/mi-municipio/internal/engine"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// The API goes live immediately; endpoints report "loading" until the
	// batch load below finishes.
	prefs := engine.NewPreferences(cfg.PrefsFile)
	h := api.NewHandler(nil, prefs, logger.Named("api"))
	h.RegisterRoutes(e)

	go func() {
		t0 := time.Now()
		logger.Info("loading datasets", zap.String("data_dir", cfg.DataDir))

		loader := engine.NewLoader(cfg.DataDir, cfg.FetchTimeout, logger.Named("loader"))
		store, err := loader.LoadAll(context.Background())
		if err != nil {
			// all-or-nothing: no partial dataset state is ever exposed
			logger.Error("dataset load failed", zap.Error(err))
			return
		}

		h.SetData(store)
		logger.Info("datasets ready", zap.Duration("elapsed", time.Since(t0)))
	}()

	logger.Info("server listening", zap.String("addr", cfg.Addr()))
	if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
