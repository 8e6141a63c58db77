package channel

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/metrics"
	"github.com/jitsucom/crashnative/storages"
	"github.com/jitsucom/crashnative/timestamp"
	"github.com/jitsucom/crashnative/uuid"
	"go.uber.org/atomic"
)

const (
	DefaultFolder       = "Telemetry"
	DefaultMaxSizeBytes = 10 * 1024 * 1024
	DefaultMaxFiles     = 5000

	peekLimit               = 50
	recentlyDeletedCapacity = 10
	tempFileMaxAge          = 5 * time.Minute
	droppedLogEvery         = 100

	transmissionSuffix = ".trn"
	tempSuffix         = ".tmp"
)

//Stats is a storage usage snapshot
type Stats struct {
	Files     int    `json:"files"`
	SizeBytes int64  `json:"size_bytes"`
	Dropped   uint64 `json:"dropped"`
}

//Storage is a durable transmission queue: one file per transmission.
//Capacity is recomputed from the folder content on every Enqueue
type Storage struct {
	fs       storages.FileStorage
	folder   string
	maxSize  int64
	maxFiles int

	enqueueMu sync.Mutex

	mu              sync.Mutex
	checkedOut      map[string]bool
	recentlyDeleted *lru.Cache

	dropped *atomic.Uint64
}

//NewStorage returns Storage and removes stale temp files left by previous runs
func NewStorage(ctx context.Context, fs storages.FileStorage, folder string, maxSize int64, maxFiles int) (*Storage, error) {
	if folder == "" {
		folder = DefaultFolder
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSizeBytes
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	recentlyDeleted, err := lru.New(recentlyDeletedCapacity)
	if err != nil {
		return nil, err
	}

	s := &Storage{
		fs:              fs,
		folder:          folder,
		maxSize:         maxSize,
		maxFiles:        maxFiles,
		checkedOut:      map[string]bool{},
		recentlyDeleted: recentlyDeleted,
		dropped:         atomic.NewUint64(0),
	}
	s.SweepTemp(ctx)

	return s, nil
}

//Enqueue persists the transmission. Returns false if it has been dropped because of capacity or storage error
func (s *Storage) Enqueue(ctx context.Context, tr *Transmission) bool {
	s.enqueueMu.Lock()
	defer s.enqueueMu.Unlock()

	usage, err := s.usage(ctx)
	if err != nil {
		logging.Errorf("Error computing telemetry storage usage: %v", err)
		return false
	}
	metrics.StorageUsage(usage.SizeBytes, usage.Files)

	if usage.SizeBytes >= s.maxSize || usage.Files >= s.maxFiles {
		dropped := s.dropped.Inc()
		metrics.TransmissionDropped()
		if dropped%droppedLogEvery == 1 {
			logging.Warnf("Telemetry storage is full (%d bytes in %d files). Transmissions are dropped: %d dropped so far", usage.SizeBytes, usage.Files, dropped)
		}
		return false
	}

	buf := &bytes.Buffer{}
	if err := tr.Save(buf); err != nil {
		logging.Errorf("Error serializing transmission: %v", err)
		return false
	}
	size := int64(buf.Len())

	id := uuid.NewCompact()
	tempName := id + tempSuffix
	if err := s.fs.WriteFile(ctx, s.folder, tempName, buf); err != nil {
		logging.Errorf("Error writing transmission file: %v", err)
		return false
	}

	name := timestamp.Now().UTC().Format(timestamp.FileLayout) + "_" + id + transmissionSuffix
	if err := s.fs.Rename(ctx, s.folder, tempName, name); err != nil {
		logging.Errorf("Error renaming transmission file [%s]: %v", tempName, err)
		s.fs.DeleteFile(ctx, s.folder, tempName)
		return false
	}

	tr.FileName = name
	tr.Size = size
	metrics.TransmissionEnqueued()
	return true
}

//Peek returns the oldest transmission which isn't checked out and marks it checked out. Returns nil if there is none
func (s *Storage) Peek(ctx context.Context) *Transmission {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.fs.ListFiles(ctx, s.folder, "*"+transmissionSuffix)
	if err != nil {
		logging.Errorf("Error listing transmission files: %v", err)
		return nil
	}
	if len(names) > peekLimit {
		names = names[:peekLimit]
	}

	for _, name := range names {
		if s.checkedOut[name] || s.recentlyDeleted.Contains(name) {
			continue
		}

		tr, err := s.load(ctx, name)
		if err != nil {
			if errors.Is(err, ErrCorruptTransmission) {
				logging.Warnf("Transmission file [%s] is corrupted and will be deleted: %v", name, err)
				s.deleteFile(ctx, name)
			} else if !errors.Is(err, storages.ErrFileNotFound) {
				logging.Errorf("Error loading transmission file [%s]: %v", name, err)
			}
			continue
		}

		s.checkedOut[name] = true
		return tr
	}

	return nil
}

//Delete removes the transmission file after a successful (or permanently failed) send
func (s *Storage) Delete(ctx context.Context, tr *Transmission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.checkedOut, tr.FileName)
	s.deleteFile(ctx, tr.FileName)
}

//Release returns the transmission into the queue: it will be peeked again
func (s *Storage) Release(tr *Transmission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.checkedOut, tr.FileName)
}

//SweepTemp removes temp files older than 5 minutes: they are leftovers of interrupted writes
func (s *Storage) SweepTemp(ctx context.Context) {
	infos, err := s.fs.ListFileInfos(ctx, s.folder, "*"+tempSuffix)
	if err != nil {
		logging.Errorf("Error listing temp transmission files: %v", err)
		return
	}

	now := timestamp.Now()
	for _, info := range infos {
		if now.Sub(info.ModTime) <= tempFileMaxAge {
			continue
		}
		if _, err := s.fs.DeleteFile(ctx, s.folder, info.Name); err != nil {
			logging.Errorf("Error deleting stale temp file [%s]: %v", info.Name, err)
		} else {
			logging.Debugf("Stale temp file [%s] has been deleted", info.Name)
		}
	}
}

func (s *Storage) Dropped() uint64 {
	return s.dropped.Load()
}

//Stats returns current usage
func (s *Storage) Stats(ctx context.Context) (Stats, error) {
	usage, err := s.usage(ctx)
	if err != nil {
		return Stats{}, err
	}
	usage.Dropped = s.dropped.Load()
	return usage, nil
}

func (s *Storage) usage(ctx context.Context) (Stats, error) {
	infos, err := s.fs.ListFileInfos(ctx, s.folder, "*")
	if err != nil {
		return Stats{}, err
	}

	usage := Stats{}
	for _, info := range infos {
		if !strings.HasSuffix(info.Name, transmissionSuffix) && !strings.HasSuffix(info.Name, tempSuffix) {
			continue
		}
		usage.Files++
		usage.SizeBytes += info.Size
	}
	return usage, nil
}

func (s *Storage) load(ctx context.Context, name string) (*Transmission, error) {
	reader, err := s.fs.ReadFile(ctx, s.folder, name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	tr, err := Load(reader)
	if err != nil {
		return nil, err
	}
	tr.FileName = name
	return tr, nil
}

//deleteFile must be called under the lock
func (s *Storage) deleteFile(ctx context.Context, name string) {
	s.recentlyDeleted.Add(name, true)
	if _, err := s.fs.DeleteFile(ctx, s.folder, name); err != nil {
		logging.Errorf("Error deleting transmission file [%s]: %v", name, err)
	}
}
