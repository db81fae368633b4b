package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opscart/k8s-resource-dashboard/pkg/config"
	"github.com/opscart/k8s-resource-dashboard/pkg/dump"
	"github.com/opscart/k8s-resource-dashboard/pkg/pricing"
	"github.com/opscart/k8s-resource-dashboard/pkg/storage"
	"github.com/rs/zerolog/log"
)

// Server wires the report store, the dump manager and the pricing provider
// into the HTTP surface. Handlers hold no per-request state; the connection
// pool inside the store is the only shared resource.
type Server struct {
	cfg     *config.Config
	store   storage.Store
	dumps   *dump.Manager
	pricing pricing.Provider
}

func NewServer(cfg *config.Config, store storage.Store, dumps *dump.Manager, pricingProvider pricing.Provider) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		dumps:   dumps,
		pricing: pricingProvider,
	}
}

// Router builds the gin engine with all API routes.
func (s *Server) Router() *gin.Engine {

	// run gin in release mode and other defaults
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = log.Logger
	gin.DisableConsoleColor()

	router := gin.New()

	router.Use(RequestIDMiddleware())
	router.Use(ZeroLogMiddleware())

	// Recovery middleware recovers from any panics and writes a 500 if there was one.
	router.Use(gin.Recovery())

	// liveness and readiness
	router.GET("/liveness", func(c *gin.Context) {
		c.String(http.StatusOK, "I'm alive!")
	})
	router.GET("/readiness", func(c *gin.Context) {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			c.String(http.StatusServiceUnavailable, "Database unreachable")
			return
		}
		c.String(http.StatusOK, "I'm ready!")
	})

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", s.getHealth)

		apiGroup.GET("/resource-utilization", s.getAllResourceUtilization)
		apiGroup.GET("/resource-utilization/env/:env", s.getResourceUtilizationByEnv)
		apiGroup.GET("/resource-utilization/project/:project", s.getResourceUtilizationByProject)
		apiGroup.GET("/overprovisioned-apps", s.getOverprovisionedApps)
		apiGroup.GET("/optimization-recommendations", s.getOptimizationRecommendations)

		apiGroup.GET("/projects/stats", s.getProjectStats)
		apiGroup.GET("/projects/:project", s.getProjectDetail)
		apiGroup.GET("/projects/:project/stats", s.getProjectStatsByName)
		apiGroup.GET("/environments/stats", s.getEnvironmentStats)

		apiGroup.GET("/optimization-history", s.getOptimizationHistory)
		apiGroup.GET("/optimization-history/:id", s.getOptimizationRecord)
		apiGroup.POST("/optimization-history", s.createOptimizationRecord)
		apiGroup.PUT("/optimization-history/:id", s.updateOptimizationStatus)

		apiGroup.POST("/dump", s.createDump)
		apiGroup.GET("/dumps", s.listDumps)
		apiGroup.POST("/restore/:dumpFile", s.restoreFromDump)

		apiGroup.GET("/stats/summary", s.getStatsSummary)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return router
}
