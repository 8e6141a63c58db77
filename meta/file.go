package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
)

//File keeps all settings in a single JSON document.
//Every write rewrites the document through a temporary file and rename
type File struct {
	mu       sync.RWMutex
	filePath string
	values   map[string]string
}

//NewFile reads existing settings document (if any)
func NewFile(filePath string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("Error creating settings dir: %v", err)
	}

	f := &File{filePath: filePath, values: map[string]string{}}
	b, err := ioutil.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("Error reading settings file [%s]: %v", filePath, err)
	}

	if len(b) > 0 {
		if err := json.Unmarshal(b, &f.values); err != nil {
			return nil, fmt.Errorf("Error unmarshalling settings file [%s]: %v", filePath, err)
		}
	}

	return f, nil
}

func (f *File) ReadAllText(ctx context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	value, ok := f.values[key]
	return value, ok, nil
}

func (f *File) WriteAllText(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = value
	return f.persist()
}

func (f *File) RemoveKey(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.values[key]; !ok {
		return nil
	}

	delete(f.values, key)
	return f.persist()
}

//persist must be called under the write lock
func (f *File) persist() error {
	b, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("Error marshalling settings: %v", err)
	}

	tmpPath := f.filePath + ".tmp"
	if err := ioutil.WriteFile(tmpPath, b, 0644); err != nil {
		return fmt.Errorf("Error writing settings file [%s]: %v", tmpPath, err)
	}

	if err := os.Rename(tmpPath, f.filePath); err != nil {
		return fmt.Errorf("Error renaming settings file [%s]: %v", tmpPath, err)
	}

	return nil
}

func (f *File) Type() string {
	return FileType
}

func (f *File) Close() error {
	return nil
}
