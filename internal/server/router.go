package server

import (
	"github.com/lucasbeniti/todo-api/internal/config"
	"github.com/lucasbeniti/todo-api/internal/handlers"
	"github.com/lucasbeniti/todo-api/internal/middleware"
	"github.com/lucasbeniti/todo-api/internal/monitoring"
	"github.com/lucasbeniti/todo-api/internal/services"
	"github.com/lucasbeniti/todo-api/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Deps struct {
	Config      *config.Config
	DB          *gorm.DB
	AuthService services.AuthService
	TaskService services.TaskService
	Queue       *worker.JobQueue
	Monitoring  *monitoring.Registry
}

// NewRouter assembles the gin engine: global middleware, operational
// endpoints and the /api group with public auth routes and token-guarded
// task routes.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	if deps.Monitoring != nil {
		router.Use(deps.Monitoring.Middleware())
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))
	router.Use(middleware.RateLimit(deps.Config.RateLimit))

	if deps.Monitoring != nil {
		router.GET("/healthz", deps.Monitoring.HealthHandler())
		router.GET("/readyz", deps.Monitoring.ReadinessHandler())
		router.GET("/livez", deps.Monitoring.LivenessHandler())
		router.GET("/metrics", deps.Monitoring.MetricsHandler())
	}

	authHandler := handlers.NewAuthHandler(deps.DB, deps.AuthService)
	taskHandler := handlers.NewTaskHandler(deps.DB, deps.TaskService, deps.Queue)

	api := router.Group("/api")
	{
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
	}

	authed := api.Group("", middleware.RequireAuth(deps.AuthService))
	{
		authed.POST("/logout", authHandler.Logout)

		authed.GET("/tasks", taskHandler.ListTasks)
		authed.POST("/tasks", taskHandler.CreateTask)
		authed.GET("/tasks/:id", taskHandler.GetTask)
		authed.PUT("/tasks/:id", taskHandler.UpdateTask)
		authed.PATCH("/tasks/:id", taskHandler.UpdateTask)
		authed.DELETE("/tasks/:id", taskHandler.DeleteTask)
	}

	return router
}
