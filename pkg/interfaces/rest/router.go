package rest

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter builds the gin engine with all warehouse routes registered
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("stockflow"))

	r.GET("/healthz", h.Health)
	r.POST("/putaway", h.Putaway)
	r.POST("/allocate", h.Allocate)
	r.POST("/picks/confirm", h.ConfirmPicks)
	r.POST("/ship", h.Ship)
	r.POST("/adjust", h.Adjust)
	r.GET("/items/:id/rollup", h.Rollup)

	return r
}
