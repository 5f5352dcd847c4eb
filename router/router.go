// router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aria7-op/schoolguard/controller"
	"github.com/aria7-op/schoolguard/middleware"
)

func SetupRouter(
	controllers *controller.Controllers,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))

	api := router.Group("/api/v1")

	controllers.Access.RegisterRoutes(api)

	return router
}
