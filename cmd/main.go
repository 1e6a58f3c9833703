package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/franciscosanchezn/gin-cafe-api/docs" // Import generated docs
	"github.com/franciscosanchezn/gin-cafe-api/internal/config"
	"github.com/franciscosanchezn/gin-cafe-api/internal/controllers"
	"github.com/franciscosanchezn/gin-cafe-api/internal/database"
	"github.com/franciscosanchezn/gin-cafe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-cafe-api/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/swaggo/files"
	"github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	db              *gorm.DB
	dishService     services.DishService
	orderService    services.OrderService
	dishController  controllers.DishController
	orderController controllers.OrderController
	configuration   *config.Config
)

// @title Cafe API
// @version 1.0
// @description Restaurant order management: dish catalog, orders and their line items
// @host localhost:8080
// @BasePath /
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Initialize database connection
	setupDatabase()

	// Initialize services and controllers
	dishService = services.NewDishService(db)
	orderService = services.NewOrderService(db)
	dishController = controllers.NewDishController(dishService)
	orderController = controllers.NewOrderController(
		orderService,
		services.NewReceiptService(orderService, configuration.PublicBaseURL),
		services.NewExportService(orderService),
	)

	if configuration.SeedMenu {
		seedDatabase()
	}

	// Initialize Gin router
	var router *gin.Engine = setupRouter()

	// Start the server
	checkPanicErr(runServer(router))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment.
// An explicit LOG_LEVEL wins over the environment default.
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(config.LevelForEnvironment(config.GetEnvWithDefault("APP_ENV", "development")))
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if level, err := log.ParseLevel(raw); err == nil {
			log.SetLevel(level)
		}
	}
	if config.GetEnvWithDefault("APP_ENV", "development") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase opens the configured database and migrates the schema
func setupDatabase() {
	dbConfig, err := database.LoadConfig()
	checkPanicErr(err)

	db, err = database.InitDatabase(dbConfig)
	checkPanicErr(err)

	checkPanicErr(database.Migrate(db))
}

// seedDatabase seeds the menu when the dish catalog is empty
func seedDatabase() {
	created, err := services.SeedMenu(context.Background(), dishService, services.DefaultMenu())
	checkPanicErr(err)
	if created == 0 {
		log.Info("Database already seeded with initial data")
		return
	}
	log.WithField("dishes", created).Info("Database seeded successfully")
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log.StandardLogger()))
	router.Use(cors.New(corsConfig(configuration.CORSAllowedOrigins)))

	// Define routes
	setupRoutes(router)

	return router
}

// corsConfig allows every origin for "*" and the listed origins otherwise
func corsConfig(origins []string) cors.Config {
	corsConf := cors.DefaultConfig()
	corsConf.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConf.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	corsConf.ExposeHeaders = []string{middleware.RequestIDHeader, "Content-Disposition"}
	corsConf.MaxAge = 12 * time.Hour

	if len(origins) == 0 {
		corsConf.AllowAllOrigins = true
		return corsConf
	}
	for _, origin := range origins {
		if origin == "*" {
			corsConf.AllowAllOrigins = true
			return corsConf
		}
	}
	corsConf.AllowOrigins = origins
	return corsConf
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", healthCheckHandler)

	v1 := router.Group("/api/v1")
	controllers.RegisterRoutes(v1, dishController, orderController)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// runServer serves HTTP until SIGINT or SIGTERM, then drains in-flight requests
func runServer(router *gin.Engine) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              fmt.Sprintf("%v:%d", configuration.Host, configuration.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(configuration.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		return closeDatabase()
	})
	return g.Wait()
}

// closeDatabase releases the connection pool once the server has drained
func closeDatabase() error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
		return fmt.Errorf("close database: %w", err)
	}
	log.Info("Database closed")
	return nil
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service and its database are reachable
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "gin-cafe-api",
	})
}
