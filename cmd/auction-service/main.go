package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-market/internal/api/handlers"
	"auction-market/internal/config"
	"auction-market/internal/infrastructure/leader"
	"auction-market/internal/infrastructure/mysql"
	redisinfra "auction-market/internal/infrastructure/redis"
	"auction-market/internal/infrastructure/websocket"
	"auction-market/internal/services"
	"auction-market/pkg/logger"

	redisclient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting auction market service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	rdb := redisclient.NewClient(&redisclient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to open MySQL", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}()

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Stores
	detailsStore := mysql.NewAuctionDetailsStore(db)
	statusStore := mysql.NewAuctionStatusStore(db)
	bidStore := mysql.NewBidStore(db)

	// Redis based components
	notifier := redisinfra.NewChangeNotifier(rdb)
	changeListener := redisinfra.NewChangeListener(rdb, log)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// Core services
	locker := services.NewKeyedAuctionLocker(cfg.Sweep.LockTimeout)
	categorizer := services.NewUserCategorizationService(detailsStore, statusStore, bidStore)
	creation := services.NewAuctionCreationService(detailsStore, statusStore, locker, notifier, log)
	admission := services.NewBidAdmissionService(detailsStore, bidStore, locker, notifier, log)
	lifecycle := services.NewAuctionLifecycleService(detailsStore, statusStore, bidStore, locker, categorizer, notifier, log)
	sweeper := services.NewSweepScheduler(detailsStore, statusStore, bidStore, locker,
		leaderElection, notifier, cfg.Instance.ID, cfg.Sweep.Interval, log)

	// Realtime hub
	hub := websocket.NewHub(log)
	wsHandler := websocket.NewHandler(detailsStore, hub, log)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
	}))

	auctionHandler := handlers.NewAuctionHandler(creation, lifecycle, categorizer, detailsStore, bidStore, log)
	bidHandler := handlers.NewBidHandler(admission, detailsStore, log)

	api := e.Group("/api/v1")
	api.POST("/auctions", auctionHandler.CreateAuction)
	api.GET("/auctions", auctionHandler.ListAuctions)
	api.GET("/auctions/:id", auctionHandler.GetAuction)
	api.PUT("/auctions/:id", auctionHandler.UpdateAuction)
	api.POST("/auctions/:id/close", auctionHandler.CloseAuction)
	api.POST("/auctions/:id/complete", auctionHandler.CompleteDeal)
	api.GET("/auctions/:id/status", auctionHandler.GetStatus)
	api.GET("/auctions/:id/contact", auctionHandler.GetContact)
	api.GET("/auctions/:id/category", auctionHandler.GetCategory)
	api.POST("/auctions/:id/bids", bidHandler.PlaceBid)
	api.DELETE("/auctions/:id/bids", bidHandler.WithdrawBid)

	e.GET("/ws/auctions/:id", wsHandler.Attach)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-market",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Background: sweep, leadership loop, change listener feeding the hub.
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if err := sweeper.Start(bgCtx); err != nil {
		log.Error("Failed to start sweep", "error", err)
		os.Exit(1)
	}

	go func() {
		for {
			became, err := leaderElection.BecomeLeader(bgCtx, cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
			} else if became {
				log.Info("Became sweep leader", "instance_id", cfg.Instance.ID)
			}
			select {
			case <-bgCtx.Done():
				return
			case <-time.After(10 * time.Second):
			}
		}
	}()

	go func() {
		err := changeListener.Listen(bgCtx, func(auctionID uuid.UUID, at time.Time) error {
			return hub.BroadcastRefetch(auctionID, at)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Change listener exited", "error", err)
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()
	log.Info("Auction market server started", "address", serverAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction market service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sweeper.Stop(); err != nil {
		log.Error("Failed to stop sweep", "error", err)
	}
	bgCancel()
	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction market service stopped")
}
