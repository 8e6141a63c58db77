package telemetry

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

//NewException builds Exception item from err. pkg/errors stack traces are parsed into frames
func NewException(err error, severity SeverityLevel, properties map[string]string) *Item {
	details := ExceptionDetails{
		TypeName: fmt.Sprintf("%T", errors.Cause(err)),
		Message:  err.Error(),
	}

	var tracer stackTracer
	if errors.As(err, &tracer) {
		trace := tracer.StackTrace()
		details.HasFullStack = true
		details.Stack = fmt.Sprintf("%+v", trace)
		for i, frame := range trace {
			line, _ := strconv.Atoi(fmt.Sprintf("%d", frame))
			details.ParsedStack = append(details.ParsedStack, StackFrame{
				Level:    i,
				Method:   fmt.Sprintf("%n", frame),
				FileName: fmt.Sprintf("%s", frame),
				Line:     line,
			})
		}
	}

	return newItem(&ExceptionData{Ver: 2, Exceptions: []ExceptionDetails{details}, SeverityLevel: severity, Properties: properties})
}

//NewExceptionFromDetails builds Exception item from already collected details (e.g. reported by another process)
func NewExceptionFromDetails(details ExceptionDetails, severity SeverityLevel, properties map[string]string) *Item {
	details.HasFullStack = details.Stack != ""
	return newItem(&ExceptionData{Ver: 2, Exceptions: []ExceptionDetails{details}, SeverityLevel: severity, Properties: properties})
}
