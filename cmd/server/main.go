package main

import (
	"context"
	"log"

	"github.com/lucasbeniti/todo-api/internal/cache"
	"github.com/lucasbeniti/todo-api/internal/config"
	"github.com/lucasbeniti/todo-api/internal/database"
	"github.com/lucasbeniti/todo-api/internal/monitoring"
	"github.com/lucasbeniti/todo-api/internal/server"
	"github.com/lucasbeniti/todo-api/internal/services"
	"github.com/lucasbeniti/todo-api/internal/worker"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	registry := monitoring.NewRegistry()
	registry.RegisterHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	authService := services.NewAuthService(cfg.Auth)

	var taskService services.TaskService = services.NewTaskService()
	var queue *worker.JobQueue

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		redisCache := cache.New(client)
		registry.RegisterHealthCheck("redis", redisCache.Ping)
		taskService = cache.NewCachedTaskService(taskService, redisCache)

		queue = worker.NewJobQueue(client)

		jobWorker := worker.NewWorker(client, cfg.Worker.Queues)
		jobWorker.RegisterHandler(worker.JobTypeTaskReminder, worker.TaskReminderHandler(db))
		jobWorker.RegisterHandler(worker.JobTypeTokenCleanup, worker.TokenCleanupHandler(db))
		jobWorker.Start(cfg.Worker.Concurrency)
		defer jobWorker.Stop()

		cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
		defer cancelCleanup()
		worker.ScheduleTokenCleanup(cleanupCtx, queue, cfg.Worker.CleanupInterval)
	}

	router := server.NewRouter(server.Deps{
		Config:      cfg,
		DB:          db,
		AuthService: authService,
		TaskService: taskService,
		Queue:       queue,
		Monitoring:  registry,
	})

	if err := server.Run(cfg, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
