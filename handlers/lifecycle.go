package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jitsucom/crashnative/client"
	"github.com/jitsucom/crashnative/middleware"
	"github.com/jitsucom/crashnative/transport"
)

const (
	suspendEvent = "suspend"
	resumeEvent  = "resume"
	onlineEvent  = "online"
	offlineEvent = "offline"
	flushEvent   = "flush"
)

type LifecycleResponse struct {
	Status string `json:"status"`
	State  string `json:"session_state,omitempty"`
}

//LifecycleHandler delivers host lifecycle events to the client
type LifecycleHandler struct {
	client       *client.Client
	connectivity *transport.StaticConnectivity
}

func NewLifecycleHandler(client *client.Client, connectivity *transport.StaticConnectivity) *LifecycleHandler {
	return &LifecycleHandler{client: client, connectivity: connectivity}
}

func (lh *LifecycleHandler) Handler(c *gin.Context) {
	ctx := c.Request.Context()

	switch event := c.Param("event"); event {
	case suspendEvent:
		if err := lh.client.Suspend(ctx); err != nil {
			c.JSON(http.StatusInternalServerError, middleware.ErrResponse("Error suspending session", err))
			return
		}
		c.JSON(http.StatusOK, LifecycleResponse{Status: "ok"})
	case resumeEvent:
		state := lh.client.Resume(ctx)
		c.JSON(http.StatusOK, LifecycleResponse{Status: "ok", State: state.String()})
	case onlineEvent, offlineEvent:
		if lh.connectivity == nil {
			c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Message: "Connectivity isn't switchable"})
			return
		}
		lh.connectivity.SetOnline(event == onlineEvent)
		c.JSON(http.StatusOK, LifecycleResponse{Status: "ok"})
	case flushEvent:
		lh.client.Flush(ctx)
		c.JSON(http.StatusOK, LifecycleResponse{Status: "ok"})
	default:
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Message: "Unknown lifecycle event: " + event})
	}
}
