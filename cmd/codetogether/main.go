package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rx3lixir/codetogether/internal/archive"
	"github.com/rx3lixir/codetogether/internal/clock"
	"github.com/rx3lixir/codetogether/internal/config"
	"github.com/rx3lixir/codetogether/internal/events"
	"github.com/rx3lixir/codetogether/internal/executor"
	"github.com/rx3lixir/codetogether/internal/interview"
	"github.com/rx3lixir/codetogether/internal/limiter"
	"github.com/rx3lixir/codetogether/internal/room"
	"github.com/rx3lixir/codetogether/internal/server"
	"github.com/rx3lixir/codetogether/internal/storage/postgres"
	"github.com/rx3lixir/codetogether/internal/storage/s3"
	"github.com/rx3lixir/codetogether/internal/version"
	"github.com/rx3lixir/codetogether/internal/websocket"
	"github.com/rx3lixir/codetogether/pkg/logger"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "internal/config/config.yaml", "path to the yaml config")
	pflag.Parse()

	// Initializing and validating config
	cm, err := config.NewConfigManager(*configPath)
	if err != nil {
		fmt.Printf("Error getting config file: %v\n", err)
		os.Exit(1)
	}
	c := cm.GetConfig()
	if err := c.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initializing logger
	log := logger.Must(logger.New(logger.Config{
		Env:       c.GeneralParams.Env,
		Level:     c.GeneralParams.LogLevel,
		AddSource: false,
	}))

	log.Info(
		"Config loaded successfully!",
		"env", c.GeneralParams.Env,
		"http_server_port", c.HttpServerParams.Port,
		"http_server_address", c.HttpServerParams.Address,
		"database", c.MainDBParams.Name,
	)

	// Global context with cancel
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.Real()

	// Database connection and schema
	pool, err := postgres.NewPool(ctx, c.MainDBParams.GetDSN())
	if err != nil {
		log.Error("Failed to create postgres pool", "error", err, "db", c.MainDBParams.Name)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Error("Failed to apply database schema", "error", err)
		os.Exit(1)
	}
	log.Info("Database connection established", "host", c.MainDBParams.Host, "db", c.MainDBParams.Name)

	// Object storage for exported rooms
	minioClient, err := s3.Connect(ctx, s3.Options{
		Endpoint:        c.S3Params.Endpoint,
		AccessKeyID:     c.S3Params.AccessKeyID,
		SecretAccessKey: c.S3Params.SecretAccessKey,
		UseSSL:          c.S3Params.UseSSL,
		Bucket:          c.S3Params.BucketName,
	})
	if err != nil {
		log.Error("Failed to connect to object storage", "error", err, "endpoint", c.S3Params.Endpoint)
		os.Exit(1)
	}
	log.Info("Object storage ready", "bucket", c.S3Params.BucketName)

	// Run rate limiting is optional
	var runLimiter limiter.Limiter = limiter.Unlimited{}
	if c.RedisParams.Enabled() {
		rdb, err := limiter.NewRedisClient(ctx, limiter.RedisOptions{
			Addr:     c.RedisParams.Addr,
			Password: c.RedisParams.Password,
			DB:       c.RedisParams.DB,
		})
		if err != nil {
			log.Error("Failed to connect to redis", "error", err, "addr", c.RedisParams.Addr)
			os.Exit(1)
		}
		defer rdb.Close()

		runLimiter = limiter.NewRedisLimiter(rdb, c.RedisParams.RunLimit, c.RedisParams.RunWindow(), log)
		log.Info("Run rate limiting enabled",
			"limit", c.RedisParams.RunLimit,
			"window", c.RedisParams.RunWindow())
	}

	// Activity events are optional
	var publisher events.Publisher = events.Nop{}
	if c.KafkaParams.Enabled() {
		kp, err := events.NewKafkaPublisher(c.KafkaParams.Brokers, c.KafkaParams.Topic, log)
		if err != nil {
			log.Error("Failed to create kafka producer", "error", err, "brokers", c.KafkaParams.Brokers)
			os.Exit(1)
		}
		publisher = kp
		log.Info("Publishing room events", "topic", c.KafkaParams.Topic)
	}
	defer publisher.Close()

	catalog, err := interview.Default()
	if err != nil {
		log.Error("Failed to load interview catalog", "error", err)
		os.Exit(1)
	}

	// Room engine
	rooms := room.NewRegistry(clk, c.RoomParams.GracePeriod(), log)
	hubs := websocket.NewManager(clk, log)
	versions := version.NewService(version.NewPostgresStore(pool), clk, c.RoomParams.VersionPageSize)

	judge := executor.NewJudge0Client(c.ExecutorParams.BaseURL, c.ExecutorParams.APIKey, c.ExecutorParams.Timeout())
	engine := websocket.NewEngine(websocket.EngineConfig{
		Rooms:      rooms,
		Hubs:       hubs,
		Dispatcher: executor.NewDispatcher(judge, clk, log),
		Versions:   versions,
		Catalog:    catalog,
		Limiter:    runLimiter,
		Events:     publisher,
		Clock:      clk,
		Log:        log,
	})

	snapshotter := version.NewSnapshotter(versions, rooms, clk, c.RoomParams.AutosaveInterval(), log)
	snapshotter.Start(ctx)

	router := server.NewRouter(server.RouterConfig{
		RoomHandler:      room.NewHandler(rooms, log),
		VersionHandler:   version.NewHandler(versions, log, 5*time.Second),
		ArchiveHandler:   archive.NewHandler(archive.NewMinIOStore(minioClient, c.S3Params.BucketName), rooms, hubs, clk, log),
		WebSocketHandler: websocket.NewHandler(engine, c.HttpServerParams.OriginHosts(), log),
		StatusHandler:    server.NewStatusHandler(rooms, hubs, pool, clk, log),
		AllowedOrigins:   c.HttpServerParams.AllowedOrigins,
		Log:              log,
	})

	// Creates HTTP server
	httpServer := server.New(c.HttpServerParams.GetAddress(), router, log)

	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- httpServer.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-serverErrors:
		log.Error("Server error", "error", err)

	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		log.Info("Shutting down HTTP server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", "error", err)
		}
	}

	snapshotter.Stop()
	hubs.Shutdown()
	engine.Wait()
	log.Info("Server stopped")
}
