package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aria7-op/schoolguard/audit"
	"github.com/aria7-op/schoolguard/config"
	"github.com/aria7-op/schoolguard/controller"
	"github.com/aria7-op/schoolguard/dao"
	"github.com/aria7-op/schoolguard/db"
	logger "github.com/aria7-op/schoolguard/logging"
	"github.com/aria7-op/schoolguard/pdp/engine"
	"github.com/aria7-op/schoolguard/router"
	"github.com/aria7-op/schoolguard/service"
	"github.com/aria7-op/schoolguard/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	// Initialize Neo4j
	if err := db.InitNeo4j(); err != nil {
		logger.Fatal("Failed to initialize Neo4j", zap.Error(err))
	}
	defer db.CloseNeo4j()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Initialize services and utilities
	validationUtil := util.NewValidationUtil()
	cacheService := util.NewCacheService()
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Fatal("Failed to initialize Elasticsearch repository", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)

	// Initialize DAOs
	subjectDAO := dao.NewSubjectDAO(db.Neo4jDriver)
	policyDAO := dao.NewPolicyDAO(db.Neo4jDriver)
	policyStore := dao.NewCachedPolicyStore(policyDAO, cacheService)

	// Initialize the decision engine
	strategyName := config.GetString("engine.strategy")
	strategy, err := engine.ParseStrategy(strategyName)
	if err != nil {
		logger.Warn("Unknown combination strategy, falling back to ALL",
			zap.String("strategy", strategyName))
	}
	policyEngine := engine.NewEngine(subjectDAO, policyStore, auditService, strategy)
	policyEngine.SetWeightedThreshold(config.GetInt("engine.weightedThreshold"))
	policyEngine.BusinessHourStart = config.GetInt("engine.businessHourStart")
	policyEngine.BusinessHourEnd = config.GetInt("engine.businessHourEnd")

	// Initialize services
	accessService := service.NewAccessService(
		policyEngine,
		subjectDAO,
		validationUtil,
		cacheService,
		auditService,
		eventBus,
		string(strategy),
	)

	// Initialize controllers
	controllers := controller.InitializeControllers(accessService)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	r := router.SetupRouter(controllers, 100, time.Minute) // 100 requests per minute

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: r,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
