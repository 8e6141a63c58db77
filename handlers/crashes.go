package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jitsucom/crashnative/client"
	"github.com/jitsucom/crashnative/crashes"
	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/middleware"
)

//CrashRequest is a crash report submitted by an external process
type CrashRequest struct {
	Log         string `json:"log" binding:"required"`
	Description string `json:"description"`
	UserID      string `json:"user_id"`
	Contact     string `json:"contact"`
}

type CrashSavedResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

type CrashesListResponse struct {
	Files []string `json:"files"`
}

type CrashesSentResponse struct {
	Sent bool `json:"sent"`
}

type CrashesHandler struct {
	client *client.Client
}

func NewCrashesHandler(client *client.Client) *CrashesHandler {
	return &CrashesHandler{client: client}
}

//PostHandler saves crash report into the crash store
func (ch *CrashesHandler) PostHandler(c *gin.Context) {
	req := &CrashRequest{}
	if err := c.BindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, middleware.ErrResponse("Failed to parse body", err))
		return
	}

	record, err := ch.client.SaveCrash(c.Request.Context(), req.Log, crashes.Details{
		Description: req.Description,
		UserID:      req.UserID,
		Contact:     req.Contact,
	})
	if err != nil {
		logging.Errorf("Error saving crash report: %v", err)
		c.JSON(http.StatusInternalServerError, middleware.ErrResponse("Error saving crash report", err))
		return
	}

	c.JSON(http.StatusOK, CrashSavedResponse{Status: "ok", ID: record.ID})
}

//ListHandler returns pending crash files
func (ch *CrashesHandler) ListHandler(c *gin.Context) {
	files, err := ch.client.PendingCrashes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, middleware.ErrResponse("Error listing crash files", err))
		return
	}

	if files == nil {
		files = []string{}
	}
	c.JSON(http.StatusOK, CrashesListResponse{Files: files})
}

//SendHandler runs one upload pass. sent is false if nothing has been sent or a pass is already running
func (ch *CrashesHandler) SendHandler(c *gin.Context) {
	c.JSON(http.StatusOK, CrashesSentResponse{Sent: ch.client.SendCrashes(c.Request.Context())})
}
