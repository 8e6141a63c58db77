package crashes

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/metrics"
	"github.com/jitsucom/crashnative/storages"
	"github.com/jitsucom/crashnative/timestamp"
	"github.com/jitsucom/crashnative/uuid"
)

const (
	DefaultFolder = "HockeyCrashes"

	filePrefix  = "crashinfo_"
	fileSuffix  = ".log"
	filePattern = filePrefix + "*" + fileSuffix

	tempSuffix     = ".tmp"
	tempFileMaxAge = 5 * time.Minute
)

//SDKInfo identifies the SDK which produced crash records
type SDKInfo struct {
	Name    string
	Version string
}

//Store is a durable queue of crash records: one file per record in the crash folder
type Store struct {
	storage      storages.FileStorage
	folder       string
	sdk          SDKInfo
	environment  EnvironmentFunc
	errorHandler func(error)
}

//NewStore returns Store. errorHandler receives internal errors of SaveSafe (may be nil)
func NewStore(storage storages.FileStorage, folder string, sdk SDKInfo, environment EnvironmentFunc, errorHandler func(error)) *Store {
	if folder == "" {
		folder = DefaultFolder
	}
	if environment == nil {
		environment = func() Environment { return Environment{} }
	}
	if errorHandler == nil {
		errorHandler = func(err error) {
			logging.SystemError(err)
		}
	}

	return &Store{
		storage:      storage,
		folder:       folder,
		sdk:          sdk,
		environment:  environment,
		errorHandler: errorHandler,
	}
}

//FileName returns crash file name for the record id
func FileName(id string) string {
	return filePrefix + id + fileSuffix
}

//IsCrashFile returns true if name matches crash file naming
func IsCrashFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

//NewRecord returns a Record stamped with the store SDK info
func (s *Store) NewRecord(log string, details Details) *Record {
	return &Record{
		ID:          uuid.New(),
		Log:         log,
		Description: details.Description,
		UserID:      details.UserID,
		Contact:     details.Contact,
		SDKName:     s.sdk.Name,
		SDKVersion:  s.sdk.Version,
		CreatedAt:   timestamp.Now().UTC(),
	}
}

//RecordFromError builds Record with environment header and err stack
func (s *Store) RecordFromError(err error, details Details) *Record {
	now := timestamp.Now()
	return s.NewRecord(ErrorLog(s.environment(), err, now), details)
}

//RecordFromPanic builds Record with environment header and the panic stack
func (s *Store) RecordFromPanic(value interface{}, stack []byte, details Details) *Record {
	now := timestamp.Now()
	return s.NewRecord(PanicLog(s.environment(), value, stack, now), details)
}

//Save serializes the record into a new uniquely named file
func (s *Store) Save(ctx context.Context, record *Record) error {
	if record.ID == "" {
		record.ID = uuid.New()
	}

	buf := &bytes.Buffer{}
	if err := record.Serialize(buf); err != nil {
		return fmt.Errorf("Error serializing crash record [%s]: %v", record.ID, err)
	}

	//records become visible to upload passes only after they are completely written
	tempName := record.ID + tempSuffix
	if err := s.storage.WriteFile(ctx, s.folder, tempName, buf); err != nil {
		s.storage.DeleteFile(ctx, s.folder, tempName)
		return fmt.Errorf("Error writing crash record [%s]: %v", record.ID, err)
	}

	if err := s.storage.Rename(ctx, s.folder, tempName, FileName(record.ID)); err != nil {
		s.storage.DeleteFile(ctx, s.folder, tempName)
		return fmt.Errorf("Error moving crash record [%s] into place: %v", record.ID, err)
	}

	metrics.CrashSaved()
	return nil
}

//SaveSafe is Save for the crash path: it never panics and never returns an error.
//Failures are passed to the store error handler
func (s *Store) SaveSafe(ctx context.Context, record *Record) (saved bool) {
	defer func() {
		if r := recover(); r != nil {
			s.errorHandler(fmt.Errorf("panic while saving crash record: %v", r))
			saved = false
		}
	}()

	if err := s.Save(ctx, record); err != nil {
		s.errorHandler(err)
		return false
	}

	return true
}

//ListPending returns names of stored crash files in listing order. Re-list to refresh
func (s *Store) ListPending(ctx context.Context) ([]string, error) {
	names, err := s.storage.ListFiles(ctx, s.folder, filePattern)
	if err != nil {
		return nil, fmt.Errorf("Error listing crash files: %v", err)
	}

	return names, nil
}

//Load reads and deserializes the record stored in file name
func (s *Store) Load(ctx context.Context, name string) (*Record, error) {
	reader, err := s.storage.ReadFile(ctx, s.folder, name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return Deserialize(reader)
}

//Delete removes the record file. Absent files aren't an error
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.storage.DeleteFile(ctx, s.folder, name); err != nil {
		return fmt.Errorf("Error deleting crash file [%s]: %v", name, err)
	}

	return nil
}

//SweepTemp removes temp files older than 5 minutes: they are leftovers of interrupted saves
func (s *Store) SweepTemp(ctx context.Context) {
	infos, err := s.storage.ListFileInfos(ctx, s.folder, "*"+tempSuffix)
	if err != nil {
		s.errorHandler(fmt.Errorf("Error listing temp crash files: %v", err))
		return
	}

	now := timestamp.Now()
	for _, info := range infos {
		if now.Sub(info.ModTime) <= tempFileMaxAge {
			continue
		}
		if _, err := s.storage.DeleteFile(ctx, s.folder, info.Name); err != nil {
			s.errorHandler(fmt.Errorf("Error deleting stale temp crash file [%s]: %v", info.Name, err))
		} else {
			logging.Debugf("Stale temp crash file [%s] has been deleted", info.Name)
		}
	}
}

func (s *Store) Folder() string {
	return s.folder
}
