package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/jitsucom/crashnative/timestamp"
)

//Kind is a telemetry item variant
type Kind string

const (
	EventKind        Kind = "Event"
	TraceKind        Kind = "Message"
	MetricKind       Kind = "Metric"
	PageViewKind     Kind = "PageView"
	ExceptionKind    Kind = "Exception"
	DependencyKind   Kind = "RemoteDependency"
	RequestKind      Kind = "Request"
	SessionStateKind Kind = "SessionState"

	envelopePrefix = "Microsoft.ApplicationInsights."
)

//Item is a telemetry envelope. Data.BaseData holds the variant payload
type Item struct {
	Name string            `json:"name"`
	Time time.Time         `json:"time"`
	IKey string            `json:"iKey"`
	Tags map[string]string `json:"tags,omitempty"`
	Data Data              `json:"data"`
}

type Data struct {
	BaseType string  `json:"baseType"`
	BaseData Payload `json:"baseData"`
}

//Payload is a variant specific part of the Item
type Payload interface {
	Kind() Kind
	sanitize()
}

func newItem(payload Payload) *Item {
	return &Item{
		Time: timestamp.Now().UTC(),
		Tags: map[string]string{},
		Data: Data{
			BaseType: string(payload.Kind()) + "Data",
			BaseData: payload,
		},
	}
}

func (i *Item) Kind() Kind {
	return i.Data.BaseData.Kind()
}

//EnvelopeName returns Microsoft.ApplicationInsights.<ikey without dashes>.<kind>
func EnvelopeName(iKey string, kind Kind) string {
	compact := strings.ReplaceAll(iKey, "-", "")
	if compact == "" {
		return envelopePrefix + string(kind)
	}
	return envelopePrefix + compact + "." + string(kind)
}

//SeverityLevel of traces and exceptions
type SeverityLevel int

const (
	Verbose SeverityLevel = iota
	Information
	Warning
	Error
	Critical
)

type EventData struct {
	Ver          int                `json:"ver"`
	Name         string             `json:"name"`
	Properties   map[string]string  `json:"properties,omitempty"`
	Measurements map[string]float64 `json:"measurements,omitempty"`
}

func (*EventData) Kind() Kind { return EventKind }

func (d *EventData) sanitize() {
	d.Name = sanitizeName(d.Name)
	d.Properties = sanitizeProperties(d.Properties)
	d.Measurements = sanitizeMeasurements(d.Measurements)
}

func NewEvent(name string, properties map[string]string, measurements map[string]float64) *Item {
	return newItem(&EventData{Ver: 2, Name: name, Properties: properties, Measurements: measurements})
}

type MessageData struct {
	Ver           int               `json:"ver"`
	Message       string            `json:"message"`
	SeverityLevel SeverityLevel     `json:"severityLevel"`
	Properties    map[string]string `json:"properties,omitempty"`
}

func (*MessageData) Kind() Kind { return TraceKind }

func (d *MessageData) sanitize() {
	d.Message = truncate(d.Message, maxMessageLength)
	d.Properties = sanitizeProperties(d.Properties)
}

func NewTrace(message string, severity SeverityLevel, properties map[string]string) *Item {
	return newItem(&MessageData{Ver: 2, Message: message, SeverityLevel: severity, Properties: properties})
}

type DataPointKind int

const (
	Measurement DataPointKind = iota
	Aggregation
)

type DataPoint struct {
	Name  string        `json:"name"`
	Kind  DataPointKind `json:"kind"`
	Value float64       `json:"value"`
	Count int           `json:"count,omitempty"`
}

type MetricData struct {
	Ver        int               `json:"ver"`
	Metrics    []DataPoint       `json:"metrics"`
	Properties map[string]string `json:"properties,omitempty"`
}

func (*MetricData) Kind() Kind { return MetricKind }

func (d *MetricData) sanitize() {
	for i := range d.Metrics {
		d.Metrics[i].Name = sanitizeName(d.Metrics[i].Name)
	}
	d.Properties = sanitizeProperties(d.Properties)
}

func NewMetric(name string, value float64, properties map[string]string) *Item {
	return newItem(&MetricData{Ver: 2, Metrics: []DataPoint{{Name: name, Kind: Measurement, Value: value, Count: 1}}, Properties: properties})
}

type PageViewData struct {
	Ver          int                `json:"ver"`
	Name         string             `json:"name"`
	URL          string             `json:"url,omitempty"`
	Duration     string             `json:"duration,omitempty"`
	Properties   map[string]string  `json:"properties,omitempty"`
	Measurements map[string]float64 `json:"measurements,omitempty"`
}

func (*PageViewData) Kind() Kind { return PageViewKind }

func (d *PageViewData) sanitize() {
	d.Name = sanitizeName(d.Name)
	d.URL = truncate(d.URL, maxURLLength)
	d.Properties = sanitizeProperties(d.Properties)
	d.Measurements = sanitizeMeasurements(d.Measurements)
}

func NewPageView(name, url string, duration time.Duration, properties map[string]string) *Item {
	return newItem(&PageViewData{Ver: 2, Name: name, URL: url, Duration: FormatDuration(duration), Properties: properties})
}

type StackFrame struct {
	Level    int    `json:"level"`
	Method   string `json:"method"`
	FileName string `json:"fileName,omitempty"`
	Line     int    `json:"line,omitempty"`
}

type ExceptionDetails struct {
	TypeName     string       `json:"typeName"`
	Message      string       `json:"message"`
	HasFullStack bool         `json:"hasFullStack"`
	Stack        string       `json:"stack,omitempty"`
	ParsedStack  []StackFrame `json:"parsedStack,omitempty"`
}

type ExceptionData struct {
	Ver           int                `json:"ver"`
	Exceptions    []ExceptionDetails `json:"exceptions"`
	SeverityLevel SeverityLevel      `json:"severityLevel"`
	Properties    map[string]string  `json:"properties,omitempty"`
	Measurements  map[string]float64 `json:"measurements,omitempty"`
}

func (*ExceptionData) Kind() Kind { return ExceptionKind }

func (d *ExceptionData) sanitize() {
	for i := range d.Exceptions {
		d.Exceptions[i].TypeName = sanitizeName(d.Exceptions[i].TypeName)
		d.Exceptions[i].Message = truncate(d.Exceptions[i].Message, maxMessageLength)
		d.Exceptions[i].Stack = truncate(d.Exceptions[i].Stack, maxMessageLength)
	}
	d.Properties = sanitizeProperties(d.Properties)
	d.Measurements = sanitizeMeasurements(d.Measurements)
}

type RemoteDependencyData struct {
	Ver        int               `json:"ver"`
	Name       string            `json:"name"`
	ID         string            `json:"id,omitempty"`
	ResultCode string            `json:"resultCode,omitempty"`
	Duration   string            `json:"duration"`
	Success    bool              `json:"success"`
	Data       string            `json:"data,omitempty"`
	Target     string            `json:"target,omitempty"`
	Type       string            `json:"type,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

func (*RemoteDependencyData) Kind() Kind { return DependencyKind }

func (d *RemoteDependencyData) sanitize() {
	d.Name = sanitizeName(d.Name)
	d.Data = truncate(d.Data, maxMessageLength)
	d.Target = sanitizeName(d.Target)
	d.Properties = sanitizeProperties(d.Properties)
}

func NewDependency(dependencyType, target, name string, success bool, duration time.Duration, properties map[string]string) *Item {
	return newItem(&RemoteDependencyData{Ver: 2, Name: name, Type: dependencyType, Target: target, Success: success,
		Duration: FormatDuration(duration), Properties: properties})
}

type RequestData struct {
	Ver          int                `json:"ver"`
	ID           string             `json:"id"`
	Name         string             `json:"name,omitempty"`
	Duration     string             `json:"duration"`
	ResponseCode string             `json:"responseCode"`
	Success      bool               `json:"success"`
	URL          string             `json:"url,omitempty"`
	Properties   map[string]string  `json:"properties,omitempty"`
	Measurements map[string]float64 `json:"measurements,omitempty"`
}

func (*RequestData) Kind() Kind { return RequestKind }

func (d *RequestData) sanitize() {
	d.Name = sanitizeName(d.Name)
	d.URL = truncate(d.URL, maxURLLength)
	d.Properties = sanitizeProperties(d.Properties)
	d.Measurements = sanitizeMeasurements(d.Measurements)
}

func NewRequest(id, name, url, responseCode string, success bool, duration time.Duration, properties map[string]string) *Item {
	return newItem(&RequestData{Ver: 2, ID: id, Name: name, URL: url, ResponseCode: responseCode, Success: success,
		Duration: FormatDuration(duration), Properties: properties})
}

//SessionState is a session boundary
type SessionState string

const (
	SessionStart SessionState = "Start"
	SessionEnd   SessionState = "End"
)

type SessionStateData struct {
	Ver   int          `json:"ver"`
	State SessionState `json:"state"`
}

func (*SessionStateData) Kind() Kind { return SessionStateKind }

func (*SessionStateData) sanitize() {}

func NewSessionState(state SessionState) *Item {
	return newItem(&SessionStateData{Ver: 2, State: state})
}

//FormatDuration renders d as d.hh:mm:ss.fffffff
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ticks := int64(d / 100)
	days := ticks / (24 * 36000000000)
	ticks -= days * 24 * 36000000000
	hours := ticks / 36000000000
	ticks -= hours * 36000000000
	minutes := ticks / 600000000
	ticks -= minutes * 600000000
	seconds := ticks / 10000000
	ticks -= seconds * 10000000

	return fmt.Sprintf("%d.%02d:%02d:%02d.%07d", days, hours, minutes, seconds, ticks)
}
