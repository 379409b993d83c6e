package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/connector/connector"
	"github.com/kbukum/connector/errors"
	"github.com/kbukum/connector/observability"
	"github.com/kbukum/connector/version"
)

// StatusSource is what the status routes read from. *connector.Connector
// satisfies it.
type StatusSource interface {
	ServiceHealth(service, version string) *observability.ServiceHealth
	Registry() *connector.Registry
}

// RegisterStatusRoutes mounts the read-only status API:
//
//	GET /health          service health from circuit states
//	GET /version         build info
//	GET /endpoints       status of every known endpoint
//	GET /endpoints/:name status of one endpoint
func RegisterStatusRoutes(r gin.IRouter, src StatusSource, service string) {
	r.GET("/health", healthHandler(src, service))
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	})
	r.GET("/endpoints", func(c *gin.Context) {
		RespondList(c, src.Registry().Snapshot())
	})
	r.GET("/endpoints/:name", func(c *gin.Context) {
		name := c.Param("name")
		st, ok := src.Registry().Status(name)
		if !ok {
			RespondWithError(c, errors.NotFound("endpoint", name))
			return
		}
		RespondOK(c, st)
	})
}

func healthHandler(src StatusSource, service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := src.ServiceHealth(service, version.Get().Short())
		status := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, sh)
	}
}
