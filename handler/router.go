package handler

import (
	"net/http"

	"github.com/annazecevic/catalog-service/docs"
	"github.com/annazecevic/catalog-service/domain"
	"github.com/annazecevic/catalog-service/dto"
	"github.com/annazecevic/catalog-service/middleware"
	"github.com/annazecevic/catalog-service/service"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	DocsTitle      string
	DocsOutputFile string
	MaxBodyBytes   int64
	RateLimiter    *middleware.RateLimiter
}

// NewRouter assembles the engine: middleware, catalog routes, root and
// health routes, and the API documentation generated from all of them.
func NewRouter(cfg RouterConfig, artists service.RecordService[domain.Artist], songs service.RecordService[domain.Song], store Pinger) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeaders())
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware())
	}
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	catalog := NewCatalogHandler(artists, songs)
	catalog.RegisterRoutes(r)
	NewMainHandler().RegisterRoutes(r)
	NewHealthHandler(store).RegisterRoutes(r)

	reg := docs.NewRegistry(dto.ErrorResponse{})
	catalog.Describe(reg)
	describeService(reg)
	if err := docs.Publish(reg.Build(cfg.DocsTitle, r.Routes()), cfg.DocsOutputFile); err != nil {
		return nil, err
	}
	docs.NewHandler().RegisterRoutes(r)
	return r, nil
}

func describeService(reg *docs.Registry) {
	reg.Describe(http.MethodGet, "/", docs.Route{
		Summary: "Redirect to the API documentation",
		Status:  map[int]string{http.StatusFound: "Redirect to " + docs.UIPath},
	})
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		reg.Describe(method, "/", docs.Route{
			Summary:   "Not allowed",
			ErrorBody: dto.MessageResponse{},
			Status:    map[int]string{http.StatusForbidden: msgNotAllowed},
		})
	}
	reg.Describe(http.MethodGet, "/health", docs.Route{
		Summary:   "Store connectivity check",
		Response:  dto.HealthResponse{},
		ErrorBody: dto.HealthResponse{},
		Status:    map[int]string{http.StatusOK: "Store reachable", http.StatusServiceUnavailable: "Store unreachable"},
	})
}
