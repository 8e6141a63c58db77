package storages

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
)

//Local is a FileStorage on top of a local directory
type Local struct {
	root string
}

//NewLocal creates root directory if it doesn't exist
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("Error creating storage dir [%s]: %v", root, err)
	}

	return &Local{root: root}, nil
}

func (l *Local) folderPath(folder string) string {
	return filepath.Join(l.root, folder)
}

func (l *Local) filePath(folder, name string) string {
	return filepath.Join(l.root, folder, name)
}

//WriteFile writes content and fsyncs the file
func (l *Local) WriteFile(ctx context.Context, folder, name string, content io.Reader) error {
	if err := os.MkdirAll(l.folderPath(folder), 0755); err != nil {
		return fmt.Errorf("Error creating folder [%s]: %v", folder, err)
	}

	f, err := os.OpenFile(l.filePath(folder, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return fmt.Errorf("Error writing file [%s]: %v", name, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("Error syncing file [%s]: %v", name, err)
	}

	return f.Close()
}

func (l *Local) ReadFile(ctx context.Context, folder, name string) (io.ReadCloser, error) {
	f, err := os.Open(l.filePath(folder, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	return f, nil
}

func (l *Local) DeleteFile(ctx context.Context, folder, name string) (bool, error) {
	if err := os.Remove(l.filePath(folder, name)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (l *Local) FileExists(ctx context.Context, folder, name string) (bool, error) {
	_, err := os.Stat(l.filePath(folder, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (l *Local) ListFiles(ctx context.Context, folder, pattern string) ([]string, error) {
	infos, err := l.ListFileInfos(ctx, folder, pattern)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}

	return names, nil
}

func (l *Local) ListFileInfos(ctx context.Context, folder, pattern string) ([]FileInfo, error) {
	entries, err := ioutil.ReadDir(l.folderPath(folder))
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, err
	}

	result := []FileInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matched, err := filepath.Match(pattern, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("Malformed file pattern [%s]: %v", pattern, err)
		}
		if !matched {
			continue
		}

		result = append(result, FileInfo{Name: entry.Name(), Size: entry.Size(), ModTime: entry.ModTime()})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

//Rename is atomic on the same file system
func (l *Local) Rename(ctx context.Context, folder, oldName, newName string) error {
	err := os.Rename(l.filePath(folder, oldName), l.filePath(folder, newName))
	if os.IsNotExist(err) {
		return ErrFileNotFound
	}

	return err
}

func (l *Local) SupportsSyncWrite() bool {
	return true
}
