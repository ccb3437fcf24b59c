package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BlackjackTrainer/config"
	"BlackjackTrainer/internal/game/manager"
	"BlackjackTrainer/internal/middleware"
	"BlackjackTrainer/internal/storage"
	"BlackjackTrainer/internal/utils"
	"BlackjackTrainer/internal/websocket"

	"github.com/alecthomas/kong"
	"github.com/coder/quartz"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type CLI struct {
	Config string `short:"c" help:"Path to the YAML config file." default:"config/config.yaml" type:"path"`
	Debug  bool   `help:"Force debug logging."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("blackjack-trainer"),
		kong.Description("Blackjack basic strategy and card counting trainer."),
		kong.UsageOnError(),
	)

	if err := config.Load(cli.Config); err != nil {
		utils.Logger().Fatal("config load failed", "err", err)
	}
	level := config.C.Log.Level
	if cli.Debug {
		level = "debug"
	}
	utils.Init(level)
	logger := utils.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//-------------------------------------------------------
	// 1. 初始化存储（memory / redis / postgres）
	//-------------------------------------------------------
	kv, closeKV, err := storage.Open(ctx, storage.Options{
		Driver:        config.C.Storage.Driver,
		RedisAddr:     config.C.Redis.Addr,
		RedisPassword: config.C.Redis.Password,
		RedisDB:       config.C.Redis.DB,
		PostgresDSN:   config.C.Database.DSN,
	})
	if err != nil {
		logger.Fatal("storage init failed", "driver", config.C.Storage.Driver, "err", err)
	}
	defer func() {
		if err := closeKV(); err != nil {
			logger.Error("storage close failed", "err", err)
		}
	}()

	//-------------------------------------------------------
	// 2. Hub + GameManager
	//-------------------------------------------------------
	hub := websocket.NewHub(logger.WithPrefix("hub"))
	gameMgr := manager.NewGameManager(manager.Options{
		Rules:       config.C.Rules,
		KV:          kv,
		Hub:         hub,
		Logger:      logger.WithPrefix("game"),
		Clock:       quartz.NewReal(),
		IdleTimeout: config.C.Game.SessionIdle,
		Seed:        config.C.Game.Seed,
	})
	hub.OnIncoming = gameMgr.HandlePlayerMessage

	//-------------------------------------------------------
	// 3. Gin + CORS + 路由
	//-------------------------------------------------------
	if !cli.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": gameMgr.Len()})
	})

	secret := []byte(config.C.JWT.Secret)
	if len(secret) == 0 {
		secret = []byte(uuid.NewString())
		logger.Warn("jwt.secret not set, using a random secret; tokens will not survive a restart")
	}

	h := manager.NewHandler(gameMgr, secret, config.C.JWT.TTL)
	authed := r.Group("/", middleware.JwtAuthMiddleware(secret))
	h.Mount(r, authed)
	authed.GET("/ws", websocket.ServeWS(hub))

	srv := &http.Server{
		Addr:              config.C.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	//-------------------------------------------------------
	// 4. 启动：HTTP、Hub、会话回收一起跑
	//-------------------------------------------------------
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server running", "addr", srv.Addr, "storage", config.C.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		hub.Run()
		return nil
	})

	g.Go(func() error {
		return gameMgr.RunSweeper(gctx, config.C.Game.SweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "err", err)
		return
	}
	logger.Info("server stopped")
}
