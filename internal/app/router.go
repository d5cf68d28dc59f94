package app

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pitlane.io/pitlane/internal/api/handlers"
	"pitlane.io/pitlane/internal/api/middleware"
	"pitlane.io/pitlane/internal/config"
	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/pkg/logger"
)

const baseURL = "/api/v1"

// defaultAllowedOrigins serve the local UI dev servers.
var defaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
}

func newRouter(cfg *config.Config, server *handlers.Server, jwtCfg middleware.JWTConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.New(buildCORSConfig(cfg)))
	router.Use(jwtSkipPublic(jwtCfg))
	if cfg.Server.OpenAPIValidation {
		router.Use(middleware.MustOpenAPIValidator(baseURL))
	}

	handlers.RegisterHandlers(router, server, baseURL)

	// Runtime log level: GET reads it, PUT {"level":"debug"} changes it.
	ops := router.Group(baseURL+"/admin", middleware.RequireRole(domain.RoleAdmin))
	ops.GET("/log-level", gin.WrapH(logger.LevelHandler()))
	ops.PUT("/log-level", gin.WrapH(logger.LevelHandler()))
	return router
}

// jwtSkipPublic returns middleware that applies JWT auth only on non-public routes.
func jwtSkipPublic(jwtCfg middleware.JWTConfig) gin.HandlerFunc {
	jwtMw := middleware.JWTAuth(jwtCfg)
	return func(c *gin.Context) {
		for _, p := range handlers.PublicPaths {
			if strings.HasPrefix(c.Request.URL.Path, baseURL+p) {
				c.Next()
				return
			}
		}
		jwtMw(c)
	}
}

// buildCORSConfig never combines a wildcard origin with credentials.
func buildCORSConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: cfg.Server.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	if cfg.Server.UnsafeAllowAllOrigins {
		logger.Warn("CORS allows every origin; credentials are disabled")
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
		return corsCfg
	}

	origins := make([]string, 0, len(cfg.Server.AllowedOrigins))
	for _, o := range cfg.Server.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "" || o == "*" {
			continue
		}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		origins = append(origins, defaultAllowedOrigins...)
	}
	corsCfg.AllowOrigins = origins
	return corsCfg
}
