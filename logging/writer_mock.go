package logging

import (
	"io"
	"strings"
	"sync"
)

//WriterMock keeps all written lines in memory. Used in tests
type WriterMock struct {
	mu   sync.Mutex
	Data [][]byte
}

func InitInMemoryWriter() *WriterMock {
	return &WriterMock{
		Data: [][]byte{},
	}
}

func (im *WriterMock) Write(dataToWrite []byte) (n int, err error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	line := make([]byte, len(dataToWrite))
	copy(line, dataToWrite)
	im.Data = append(im.Data, line)
	return len(dataToWrite), nil
}

//Contains returns true if any written line contains substr
func (im *WriterMock) Contains(substr string) bool {
	im.mu.Lock()
	defer im.mu.Unlock()

	for _, line := range im.Data {
		if strings.Contains(string(line), substr) {
			return true
		}
	}

	return false
}

func (im *WriterMock) Close() (err error) {
	return nil
}

var _ io.WriteCloser = (*WriterMock)(nil)
