package crashes

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/jitsucom/crashnative/timestamp"
)

//Environment is the header block of a crash log
type Environment struct {
	Package          string
	Version          string
	OS               string
	Model            string
	CrashReporterKey string
}

//EnvironmentFunc returns current Environment. It is called on the crash path and must not panic
type EnvironmentFunc func() Environment

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func writeHeader(sb *strings.Builder, env Environment, at time.Time) {
	fmt.Fprintf(sb, "Package: %s\n", env.Package)
	fmt.Fprintf(sb, "Version: %s\n", env.Version)
	fmt.Fprintf(sb, "OS: %s\n", env.OS)
	fmt.Fprintf(sb, "Model: %s\n", env.Model)
	fmt.Fprintf(sb, "Date: %s\n", at.UTC().Format(timestamp.CrashLogLayout))
	fmt.Fprintf(sb, "CrashReporter Key: %s\n", env.CrashReporterKey)
	sb.WriteString("\n")
}

//ErrorLog builds crash log text from an error.
//pkg/errors stack traces are used when available otherwise the current goroutine stack
func ErrorLog(env Environment, err error, at time.Time) string {
	sb := &strings.Builder{}
	writeHeader(sb, env, at)

	fmt.Fprintf(sb, "%T: %s\n", pkgerrors.Cause(err), err.Error())

	var st stackTracer
	if errors.As(err, &st) {
		fmt.Fprintf(sb, "%+v\n", st.StackTrace())
	} else {
		sb.Write(debug.Stack())
	}

	return sb.String()
}

//PanicLog builds crash log text from a recovered panic value and the stack captured in the deferred handler
func PanicLog(env Environment, value interface{}, stack []byte, at time.Time) string {
	sb := &strings.Builder{}
	writeHeader(sb, env, at)

	if err, ok := value.(error); ok {
		fmt.Fprintf(sb, "panic: %T: %s\n", pkgerrors.Cause(err), err.Error())
	} else {
		fmt.Fprintf(sb, "panic: %v\n", value)
	}

	if len(stack) == 0 {
		stack = debug.Stack()
	}
	sb.Write(stack)

	return sb.String()
}
