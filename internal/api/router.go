package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mesikahq/patient-dashboard/internal/dashboard"
	"github.com/mesikahq/patient-dashboard/internal/middleware"
)

type Router struct {
	handler   *Handler
	rateLimit rate.Limit
	burst     int
}

func NewRouter(handler *Handler, rps float64, burst int) *Router {
	if burst <= 0 {
		burst = 1
	}
	return &Router{
		handler:   handler,
		rateLimit: rate.Limit(rps),
		burst:     burst,
	}
}

func (r *Router) SetupRouter(logger *zap.Logger) (*gin.Engine, error) {
	tmpl, err := dashboard.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	// Apply global middleware
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.SecurityHeadersMiddleware(),
		middleware.RecoveryMiddleware(logger),
		middleware.LoggerMiddleware(logger),
		middleware.RateLimitMiddleware(r.rateLimit, r.burst),
		middleware.CORSMiddleware(),
	)

	router.GET("/", r.handler.Dashboard)
	router.POST("/patients/:id/select", r.handler.SelectPatientForm)

	router.GET("/health", r.handler.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/directory", r.handler.GetDirectory)

		patients := api.Group("/patients")
		{
			patients.GET("", r.handler.ListPatients)
			patients.GET("/selected", r.handler.GetSelectedPatient)
			patients.PUT("/selected", r.handler.SelectPatient)
		}

		api.GET("/audit/events", r.handler.GetAuditEvents)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.HTML(http.StatusNotFound, dashboard.TemplateNotFound, gin.H{
			"title": "Page Not Found",
		})
	})

	return router, nil
}
