package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jitsucom/crashnative/client"
	"github.com/jitsucom/crashnative/middleware"
	"github.com/jitsucom/crashnative/telemetry"
	"github.com/jitsucom/crashnative/uuid"
)

//item kinds accepted by the track API
const (
	eventKind      = "event"
	traceKind      = "trace"
	metricKind     = "metric"
	pageViewKind   = "page_view"
	exceptionKind  = "exception"
	dependencyKind = "dependency"
	requestKind    = "request"
)

//TrackRequest is a telemetry item submitted by an external process. Fields are used depending on kind
type TrackRequest struct {
	Kind         string                 `json:"kind" binding:"required"`
	Name         string                 `json:"name"`
	Message      string                 `json:"message"`
	Severity     int                    `json:"severity"`
	Value        float64                `json:"value"`
	URL          string                 `json:"url"`
	DurationMs   int64                  `json:"duration_ms"`
	Success      *bool                  `json:"success"`
	ResponseCode string                 `json:"response_code"`
	Target       string                 `json:"target"`
	Type         string                 `json:"type"`
	Exception    *ExceptionRequest      `json:"exception"`
	Properties   map[string]interface{} `json:"properties"`
	Measurements map[string]interface{} `json:"measurements"`
}

type ExceptionRequest struct {
	TypeName string `json:"type_name"`
	Message  string `json:"message"`
	Stack    string `json:"stack"`
}

type TrackHandler struct {
	client *client.Client
}

func NewTrackHandler(client *client.Client) *TrackHandler {
	return &TrackHandler{client: client}
}

func (th *TrackHandler) PostHandler(c *gin.Context) {
	req := &TrackRequest{}
	if err := c.BindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, middleware.ErrResponse("Failed to parse body", err))
		return
	}

	item, err := req.toItem()
	if err != nil {
		c.JSON(http.StatusBadRequest, middleware.ErrResponse("Invalid telemetry item", err))
		return
	}

	th.client.Track(item)
	c.JSON(http.StatusOK, middleware.OkResponse{Status: "ok"})
}

func (tr *TrackRequest) toItem() (*telemetry.Item, error) {
	properties := telemetry.Properties(tr.Properties)
	duration := time.Duration(tr.DurationMs) * time.Millisecond
	success := tr.Success == nil || *tr.Success

	switch tr.Kind {
	case eventKind:
		if tr.Name == "" {
			return nil, fmt.Errorf("name is required for %s", tr.Kind)
		}
		return telemetry.NewEvent(tr.Name, properties, telemetry.Measurements(tr.Measurements)), nil
	case traceKind:
		if tr.Message == "" {
			return nil, fmt.Errorf("message is required for %s", tr.Kind)
		}
		return telemetry.NewTrace(tr.Message, telemetry.SeverityLevel(tr.Severity), properties), nil
	case metricKind:
		if tr.Name == "" {
			return nil, fmt.Errorf("name is required for %s", tr.Kind)
		}
		return telemetry.NewMetric(tr.Name, tr.Value, properties), nil
	case pageViewKind:
		if tr.Name == "" {
			return nil, fmt.Errorf("name is required for %s", tr.Kind)
		}
		return telemetry.NewPageView(tr.Name, tr.URL, duration, properties), nil
	case exceptionKind:
		if tr.Exception == nil || tr.Exception.Message == "" {
			return nil, fmt.Errorf("exception.message is required for %s", tr.Kind)
		}
		return telemetry.NewExceptionFromDetails(telemetry.ExceptionDetails{
			TypeName: tr.Exception.TypeName,
			Message:  tr.Exception.Message,
			Stack:    tr.Exception.Stack,
		}, telemetry.SeverityLevel(tr.Severity), properties), nil
	case dependencyKind:
		if tr.Name == "" {
			return nil, fmt.Errorf("name is required for %s", tr.Kind)
		}
		return telemetry.NewDependency(tr.Type, tr.Target, tr.Name, success, duration, properties), nil
	case requestKind:
		if tr.Name == "" {
			return nil, fmt.Errorf("name is required for %s", tr.Kind)
		}
		return telemetry.NewRequest(uuid.NewCompact(), tr.Name, tr.URL, tr.ResponseCode, success, duration, properties), nil
	default:
		return nil, fmt.Errorf("unknown kind: %s", tr.Kind)
	}
}
