package storages

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/jitsucom/crashnative/timestamp"
)

type inMemoryFile struct {
	data    []byte
	modTime time.Time
}

//InMemory is a FileStorage for tests
type InMemory struct {
	mu      sync.RWMutex
	folders map[string]map[string]*inMemoryFile
}

func NewInMemory() *InMemory {
	return &InMemory{folders: map[string]map[string]*inMemoryFile{}}
}

func (im *InMemory) WriteFile(ctx context.Context, folder, name string, content io.Reader) error {
	b, err := ioutil.ReadAll(content)
	if err != nil {
		return err
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	files, ok := im.folders[folder]
	if !ok {
		files = map[string]*inMemoryFile{}
		im.folders[folder] = files
	}
	files[name] = &inMemoryFile{data: b, modTime: timestamp.Now()}
	return nil
}

func (im *InMemory) ReadFile(ctx context.Context, folder, name string) (io.ReadCloser, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	f, ok := im.folders[folder][name]
	if !ok {
		return nil, ErrFileNotFound
	}

	return ioutil.NopCloser(bytes.NewReader(f.data)), nil
}

func (im *InMemory) DeleteFile(ctx context.Context, folder, name string) (bool, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if _, ok := im.folders[folder][name]; !ok {
		return false, nil
	}

	delete(im.folders[folder], name)
	return true, nil
}

func (im *InMemory) FileExists(ctx context.Context, folder, name string) (bool, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	_, ok := im.folders[folder][name]
	return ok, nil
}

func (im *InMemory) ListFiles(ctx context.Context, folder, pattern string) ([]string, error) {
	infos, err := im.ListFileInfos(ctx, folder, pattern)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}

	return names, nil
}

func (im *InMemory) ListFileInfos(ctx context.Context, folder, pattern string) ([]FileInfo, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	result := []FileInfo{}
	for name, f := range im.folders[folder] {
		matched, err := path.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("Malformed file pattern [%s]: %v", pattern, err)
		}
		if matched {
			result = append(result, FileInfo{Name: name, Size: int64(len(f.data)), ModTime: f.modTime})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

func (im *InMemory) Rename(ctx context.Context, folder, oldName, newName string) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	f, ok := im.folders[folder][oldName]
	if !ok {
		return ErrFileNotFound
	}

	delete(im.folders[folder], oldName)
	im.folders[folder][newName] = f
	return nil
}

//Touch sets modification time of the file. Used in tests
func (im *InMemory) Touch(folder, name string, modTime time.Time) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if f, ok := im.folders[folder][name]; ok {
		f.modTime = modTime
	}
}

func (im *InMemory) SupportsSyncWrite() bool {
	return true
}
