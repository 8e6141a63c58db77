package logging

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gookit/color"
)

const (
	errPrefix   = "[ERROR]:"
	warnPrefix  = "[WARN]:"
	infoPrefix  = "[INFO]:"
	debugPrefix = "[DEBUG]:"
)

//GlobalLogsWriter is the writer that the global logger has been initialized with
var GlobalLogsWriter io.Writer

//LogLevel is the current level of the global logger
var LogLevel = UNKNOWN

//SystemErrorHandler is invoked on every SystemError call (after logging)
//crashnative client subscribes here for internal SDK errors
var SystemErrorHandler func(msg string)

type Config struct {
	FileName      string
	FileDir       string
	RotationMin   int64
	MaxBackups    int
	MaxFileSizeMb int
	Compress      bool

	RotateOnClose bool
}

func (c Config) Validate() error {
	if c.FileName == "" {
		return errors.New("Logger file name can't be empty")
	}
	if c.FileDir == "" {
		return errors.New("Logger file dir can't be empty")
	}

	return nil
}

//InitGlobalLogger initializes main logger
func InitGlobalLogger(writer io.Writer, levelStr string) error {
	GlobalLogsWriter = writer
	dateTimeWriter := DateTimeWriterProxy{
		writer: writer,
	}
	log.SetOutput(dateTimeWriter)
	log.SetFlags(0)

	LogLevel = ToLevel(levelStr)
	return nil
}

func SystemErrorf(format string, v ...interface{}) {
	SystemError(fmt.Sprintf(format, v...))
}

//SystemError logs internal errors of the SDK and notifies SystemErrorHandler
func SystemError(v ...interface{}) {
	msg := []interface{}{"System error:"}
	msg = append(msg, v...)
	Error(msg...)

	if SystemErrorHandler != nil {
		SystemErrorHandler(fmt.Sprintln(v...))
	}
}

func Errorf(format string, v ...interface{}) {
	Error(fmt.Sprintf(format, v...))
}

func Error(v ...interface{}) {
	if LogLevel <= ERROR {
		log.Println(errMsg(v...))
	}
}

func Infof(format string, v ...interface{}) {
	Info(fmt.Sprintf(format, v...))
}

func Info(v ...interface{}) {
	if LogLevel <= INFO {
		log.Println(append([]interface{}{infoPrefix}, v...)...)
	}
}

func Debugf(format string, v ...interface{}) {
	Debug(fmt.Sprintf(format, v...))
}

func Debug(v ...interface{}) {
	if LogLevel <= DEBUG {
		log.Println(append([]interface{}{debugPrefix}, v...)...)
	}
}

func Warnf(format string, v ...interface{}) {
	Warn(fmt.Sprintf(format, v...))
}

func Warn(v ...interface{}) {
	if LogLevel <= WARN {
		log.Println(append([]interface{}{warnPrefix}, v...)...)
	}
}

func Fatal(v ...interface{}) {
	log.Fatal(errMsg(v...))
}

func Fatalf(format string, v ...interface{}) {
	log.Fatal(errMsg(fmt.Sprintf(format, v...)))
}

func errMsg(values ...interface{}) string {
	valuesStr := []string{errPrefix}
	for _, v := range values {
		valuesStr = append(valuesStr, fmt.Sprint(v))
	}
	return color.Red.Sprint(strings.Join(valuesStr, " "))
}
