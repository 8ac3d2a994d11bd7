package routes

import (
	"net/http"
	"time"

	"mytown-issues/controllers"
	"mytown-issues/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the handlers and middleware settings the router is built from.
type Deps struct {
	Auth   *controllers.AuthController
	Issues *controllers.IssueController
	Map    *controllers.MapController

	JWTSecret   string
	CORSOrigins []string
	Logger      *zap.Logger

	// RateCounter enables per-user submission limits when set.
	RateCounter     middlewares.RateCounter
	RateLimitPrefix string
	IssueDailyLimit int
}

// SetupRouter builds the gin engine with every route group.
func SetupRouter(d Deps) (*gin.Engine, error) {
	if err := controllers.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(d.Logger))
	corsConfig := cors.Config{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(d.CORSOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	auth := middlewares.AuthMiddleware(d.JWTSecret, d.Logger)
	AuthRoutes(r, d.Auth, auth)
	IssueRoutes(r, d, auth)
	MapRoutes(r, d.Map)

	return r, nil
}
