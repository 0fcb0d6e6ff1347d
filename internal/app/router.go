package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apierrors "github.com/jpgoodman17/SPN-Site-Search/internal/errors"
	"github.com/jpgoodman17/SPN-Site-Search/internal/handlers"
	"github.com/jpgoodman17/SPN-Site-Search/internal/middleware"
)

// Router builds the HTTP API.
func (a *App) Router() *gin.Engine {
	if a.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.UseJSONFieldNames()

	router := gin.New()

	// Middleware order: RequestContext -> AccessLog -> Recovery -> CORS
	router.Use(middleware.RequestContext(a.Log))
	router.Use(middleware.AccessLog(a.Metrics))
	router.Use(middleware.Recovery(a.Log))
	router.Use(middleware.CORS(a.Config.CORS.Origins))

	router.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "Route not found")
	})

	skipRemote := a.Config.Runner.SkipRemote
	maxUpload := int64(a.Config.Server.MaxUploadMB) << 20

	healthHandler := handlers.NewHealthHandler(a.Probe, a.Clock, a.Config.Server.Env, skipRemote)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	screeningHandler := handlers.NewScreeningHandler(a.Runner, maxUpload, a.RunOptions())
	siteHandler := handlers.NewSiteHandler(a.Scorer, skipRemote)
	zoningHandler := handlers.NewZoningHandler()

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", healthHandler.Info)

		// Multipart overhead on top of the file itself.
		v1.POST("/screenings", middleware.BodyLimit(maxUpload+1<<20), screeningHandler.Create)
		v1.POST("/sites/score", siteHandler.Score)
		v1.GET("/zoning/links", zoningHandler.Links)
		v1.POST("/zoning/summary", zoningHandler.Summarize)
	}

	return router
}
