package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"helpbot/controller"
	"helpbot/service"
)

// NewRouter wires the HTTP surface onto svc.
func NewRouter(svc *service.MessageService, logger *logrus.Logger, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.Use(LogMiddleware(logger))
	r.Use(MetricsMiddleware())
	r.Use(RecoveryMiddleware(logger))

	r.GET("/health", controller.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1", CORSMiddleware(origins))
	{
		message := controller.NewMessageController(svc, logger)
		v1.POST("/messages", message.Create)
		v1.GET("/messages", message.List)
		v1.GET("/messages/:id", message.Get)
		v1.OPTIONS("/messages", func(*gin.Context) {})
		v1.OPTIONS("/messages/:id", func(*gin.Context) {})
	}

	return r
}
