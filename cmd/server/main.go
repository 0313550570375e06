package main // entry point of the ticketing service

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cinema-ticket-system/internal/clock"
	"github.com/iliyamo/cinema-ticket-system/internal/config"
	"github.com/iliyamo/cinema-ticket-system/internal/database"
	"github.com/iliyamo/cinema-ticket-system/internal/handler"
	appmw "github.com/iliyamo/cinema-ticket-system/internal/middleware"
	"github.com/iliyamo/cinema-ticket-system/internal/queue"
	"github.com/iliyamo/cinema-ticket-system/internal/reaper"
	"github.com/iliyamo/cinema-ticket-system/internal/repository"
	"github.com/iliyamo/cinema-ticket-system/internal/router"
	queuepub "github.com/iliyamo/cinema-ticket-system/internal/service"
)

func main() {
	// .env is a development convenience; production sets real env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading configuration from environment")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	screenings := repository.NewScreeningRepo(db)
	holds := repository.NewSeatHoldRepo(db)
	reservations := repository.NewReservationRepo(db)
	users := repository.NewUserRepo(db)

	clk := clock.NewSystem()
	publisher := queuepub.NewPublisher()

	h := router.Handlers{
		Browse: &handler.BrowseHandler{
			Screenings:   screenings,
			Holds:        holds,
			Reservations: reservations,
			Clock:        clk,
		},
		Hold:        handler.NewHoldHandler(screenings, holds, clk, cfg.HoldTTL),
		Reservation: handler.NewReservationHandler(screenings, reservations, clk, publisher),
		Admin:       handler.NewAdminHandler(screenings),
		Profile:     handler.NewProfileHandler(users),
		JWTSecret:   cfg.JWTSecret,
		RateLimit:   appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:       appmw.NewRedisCache(config.LoadCacheConfig(), rdb),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	router.Register(e, h)

	// Confirmation consumer runs for the lifetime of the process and
	// reconnects on its own when the broker drops.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("rabbitmq: consumer stopped: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := reaper.New(holds, cfg.ReaperInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
