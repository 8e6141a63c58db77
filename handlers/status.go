package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jitsucom/crashnative/client"
	"github.com/jitsucom/crashnative/middleware"
)

type StatusHandler struct {
	client *client.Client
}

func NewStatusHandler(client *client.Client) *StatusHandler {
	return &StatusHandler{client: client}
}

func (sh *StatusHandler) Handler(c *gin.Context) {
	status, err := sh.client.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, middleware.ErrResponse("Error collecting status", err))
		return
	}

	c.JSON(http.StatusOK, status)
}
