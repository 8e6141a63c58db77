package routers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jitsucom/crashnative/client"
	"github.com/jitsucom/crashnative/handlers"
	"github.com/jitsucom/crashnative/metrics"
	"github.com/jitsucom/crashnative/middleware"
	"github.com/jitsucom/crashnative/transport"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(crashClient *client.Client, connectivity *transport.StaticConnectivity, authToken string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New() //gin.Default()
	router.Use(gin.Recovery())

	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	crashesHandler := handlers.NewCrashesHandler(crashClient)
	trackHandler := handlers.NewTrackHandler(crashClient)
	lifecycleHandler := handlers.NewLifecycleHandler(crashClient, connectivity)
	statusHandler := handlers.NewStatusHandler(crashClient)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/crashes", middleware.TokenAuth(crashesHandler.PostHandler, authToken))
		apiV1.GET("/crashes", middleware.TokenAuth(crashesHandler.ListHandler, authToken))
		apiV1.POST("/crashes/send", middleware.TokenAuth(crashesHandler.SendHandler, authToken))

		apiV1.POST("/track", middleware.TokenAuth(trackHandler.PostHandler, authToken))
		apiV1.POST("/lifecycle/:event", middleware.TokenAuth(lifecycleHandler.Handler, authToken))
		apiV1.GET("/status", middleware.TokenAuth(statusHandler.Handler, authToken))
	}

	if metrics.Enabled {
		router.GET("/prometheus", middleware.TokenAuth(gin.WrapH(promhttp.Handler()), authToken))
	}

	return router
}
