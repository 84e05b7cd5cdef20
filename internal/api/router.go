package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	iauth "github.com/clivefinesse/jobtracker/internal/auth"
	"github.com/clivefinesse/jobtracker/internal/handlers"
	"github.com/clivefinesse/jobtracker/internal/middleware"
	"github.com/clivefinesse/jobtracker/internal/services"
)

// Deps bundles everything the router needs.
type Deps struct {
	DB           *gorm.DB
	JWT          *iauth.JWTService
	Accounts     *services.AccountService
	Applications *services.ApplicationService
	FrontendURL  string
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Accounts == nil {
		return nil, fmt.Errorf("account service must be provided")
	}
	if deps.Applications == nil {
		return nil, fmt.Errorf("application service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Ops endpoints (public)
	r.GET("/health", handlers.Health(deps.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	accountHandler := handlers.NewAccountHandler(deps.Accounts, deps.FrontendURL)
	applicationHandler := handlers.NewApplicationHandler(deps.Applications)

	requireAuth := middleware.Auth(deps.JWT)

	api := r.Group("/api")

	registerUserRoutes(api, accountHandler, requireAuth)
	registerApplicationRoutes(api, applicationHandler, requireAuth)

	return r, nil
}
