package logging

import (
	"io"

	"github.com/jitsucom/crashnative/timestamp"
)

//DateTimeWriterProxy prepends every log line with UTC date time
type DateTimeWriterProxy struct {
	writer io.Writer
}

func (wp DateTimeWriterProxy) Write(bytes []byte) (int, error) {
	return wp.writer.Write([]byte(timestamp.Now().UTC().Format(timestamp.LogsLayout) + " " + string(bytes)))
}
