package storages

import (
	"context"
	"errors"
	"io"
	"time"
)

//ErrFileNotFound is returned by ReadFile and Rename when the file doesn't exist
var ErrFileNotFound = errors.New("file not found")

//FileInfo is a listing entry
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

//FileStorage is an app-private folder based file storage.
//All names are relative to a folder; folders are created on demand
type FileStorage interface {
	WriteFile(ctx context.Context, folder, name string, content io.Reader) error
	ReadFile(ctx context.Context, folder, name string) (io.ReadCloser, error)
	//DeleteFile returns false if the file didn't exist
	DeleteFile(ctx context.Context, folder, name string) (bool, error)
	FileExists(ctx context.Context, folder, name string) (bool, error)
	//ListFiles returns names matching glob pattern (path.Match syntax) sorted by name
	ListFiles(ctx context.Context, folder, pattern string) ([]string, error)
	//ListFileInfos is ListFiles with size and modification time
	ListFileInfos(ctx context.Context, folder, pattern string) ([]FileInfo, error)
	Rename(ctx context.Context, folder, oldName, newName string) error

	//SupportsSyncWrite is true if a write is durable once WriteFile returns
	//crash handlers rely on it for writing on the panic path
	SupportsSyncWrite() bool
}
