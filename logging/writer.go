package logging

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/jitsucom/crashnative/safego"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileMaxSizeMB = 100

//WriterProxy is a lumberjack rolling writer that is rotated by time and optionally on close
type WriterProxy struct {
	lWriter       *lumberjack.Logger
	rotateOnClose bool
	ticker        *time.Ticker
}

//NewRollingWriter returns lumberjack writer which is rotated every config.RotationMin minutes
func NewRollingWriter(config Config) io.WriteCloser {
	fileNamePath := filepath.Join(config.FileDir, fmt.Sprintf("%s.log", config.FileName))
	maxFileSize := logFileMaxSizeMB
	if config.MaxFileSizeMb > 0 {
		maxFileSize = config.MaxFileSizeMb
	}
	lWriter := &lumberjack.Logger{
		Filename: fileNamePath,
		MaxSize:  maxFileSize,
		Compress: config.Compress,
	}
	if config.MaxBackups > 0 {
		lWriter.MaxBackups = config.MaxBackups
	}

	if config.RotationMin == 0 {
		config.RotationMin = 1440 //24 hours
	}
	rotation := time.Duration(config.RotationMin) * time.Minute
	ticker := time.NewTicker(rotation)
	safego.RunWithRestart(func() {
		for range ticker.C {
			if err := lWriter.Rotate(); err != nil {
				//global logger might write into this writer
				log.Printf("Error rotating log file [%s]: %v", fileNamePath, err)
			}
		}
	})

	return &WriterProxy{lWriter: lWriter, rotateOnClose: config.RotateOnClose, ticker: ticker}
}

func (wp *WriterProxy) Write(p []byte) (int, error) {
	return wp.lWriter.Write(p)
}

func (wp *WriterProxy) Close() error {
	wp.ticker.Stop()
	if wp.rotateOnClose {
		if err := wp.lWriter.Rotate(); err != nil {
			log.Printf("Error rotating log file: %v", err)
		}
	}

	return wp.lWriter.Close()
}
